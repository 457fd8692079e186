package filefilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreRules_Ignored(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		isDir   bool
		want    bool
	}{
		{"rooted dir", "/build", "build/output.js", false, true},
		{"rooted exact", "/build", "build", true, true},
		{"rooted no match", "/build", "src/build/file.js", false, false},
		{"globstar test files", "**/*.test.js", "src/utils/helper.test.js", false, true},
		{"globstar at root", "**/*.test.js", "helper.test.js", false, true},
		{"globstar middle", "src/**/*.spec.ts", "src/components/button/button.spec.ts", false, true},
		{"globstar middle direct", "src/**/*.spec.ts", "src/app.spec.ts", false, true},
		{"bracket", "*.[jt]sx", "pages/index.tsx", false, true},
		{"bracket no match", "*.[jt]sx", "pages/index.ts", false, false},
		{"dir only matches dir", "out/", "out", true, true},
		{"dir only matches files below", "out/", "out/page.js", false, true},
		{"dir only skips same-named file", "out/", "out", false, false},
		{"simple extension nested", "*.gen.js", "lib/a.gen.js", false, true},
		{"dot is literal", "a.js", "abjs", false, false},
		{"question mark", "page?.js", "page1.js", false, true},
		{"star stays in segment", "src/*.js", "src/a/b.js", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := parseIgnoreLine(tt.pattern)
			require.True(t, ok)
			got := ignoreRules{rule}.Ignored(tt.path, tt.isDir)
			assert.Equal(t, tt.want, got, "pattern %q regex %s", tt.pattern, rule.regex)
		})
	}
}

func TestIgnoreRules_Negation(t *testing.T) {
	var rules ignoreRules
	for _, line := range []string{"*.js", "!keep.js"} {
		rule, ok := parseIgnoreLine(line)
		require.True(t, ok)
		rules = append(rules, rule)
	}

	assert.True(t, rules.Ignored("a.js", false))
	assert.False(t, rules.Ignored("keep.js", false))
	assert.False(t, rules.Ignored("a.ts", false))
}

func TestParseIgnoreLine_Empty(t *testing.T) {
	_, ok := parseIgnoreLine("!")
	assert.False(t, ok)
	_, ok = parseIgnoreLine("/")
	assert.False(t, ok)
}
