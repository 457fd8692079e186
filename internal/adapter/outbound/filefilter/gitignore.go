package filefilter

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ignorePattern is one compiled line of a .gitignore file.
type ignorePattern struct {
	pattern    string
	isNegation bool
	isDir      bool
	regex      *regexp.Regexp
}

// ignoreRules is an ordered list of patterns; the last matching pattern wins.
type ignoreRules []ignorePattern

// loadIgnoreFile reads the .gitignore in dir. A missing file yields no rules.
func loadIgnoreFile(dir string) (ignoreRules, error) {
	file, err := os.Open(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var rules ignoreRules
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rule, ok := parseIgnoreLine(line); ok {
			rules = append(rules, rule)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func parseIgnoreLine(line string) (ignorePattern, bool) {
	rule := ignorePattern{pattern: line}
	if strings.HasPrefix(line, "!") {
		rule.isNegation = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		rule.isDir = true
		line = strings.TrimSuffix(line, "/")
	}
	if line == "" {
		return ignorePattern{}, false
	}
	regex, err := regexp.Compile(gitignoreToRegex(line))
	if err != nil {
		return ignorePattern{}, false
	}
	rule.regex = regex
	return rule, true
}

// gitignoreToRegex converts a gitignore pattern to a regular expression over
// slash-separated paths relative to the ignore file.
func gitignoreToRegex(pattern string) string {
	// a slash anywhere but at the end anchors the pattern to the root
	rooted := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			if i+2 < len(pattern) && pattern[i+2] == '/' {
				b.WriteString(`(.*/)?`)
				i += 2
			} else {
				b.WriteString(`.*`)
				i++
			}
		case c == '*':
			b.WriteString(`[^/]*`)
		case c == '?':
			b.WriteString(`[^/]`)
		case c == '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(pattern[i : i+end+1])
			i += end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	if rooted {
		return "^" + b.String() + "($|/.*)"
	}
	return "(^|/)" + b.String() + "($|/.*)"
}

// Ignored reports whether the slash-separated relative path is excluded.
func (r ignoreRules) Ignored(rel string, isDir bool) bool {
	rel = strings.TrimPrefix(filepath.ToSlash(rel), "./")
	ignored := false
	for _, rule := range r {
		if rule.isDir && !isDir && !rule.matchesParent(rel) {
			continue
		}
		if rule.regex.MatchString(rel) {
			ignored = !rule.isNegation
		}
	}
	return ignored
}

// matchesParent reports whether a directory-only rule matches a directory
// above rel.
func (p ignorePattern) matchesParent(rel string) bool {
	dir := filepath.ToSlash(filepath.Dir(rel))
	return dir != "." && p.regex.MatchString(dir)
}
