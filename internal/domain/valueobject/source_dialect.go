package valueobject

import (
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"path/filepath"
	"strings"
)

// SourceDialect selects the grammar a file is parsed with.
type SourceDialect string

// Source dialect constants.
const (
	DialectJavaScript SourceDialect = "javascript"
	DialectTypeScript SourceDialect = "typescript"
	DialectTSX        SourceDialect = "tsx"
)

// dialectsByExtension maps file extensions to the grammar used for them.
// JSX is part of the JavaScript grammar.
var dialectsByExtension = map[string]SourceDialect{
	".js":  DialectJavaScript,
	".jsx": DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".ts":  DialectTypeScript,
	".mts": DialectTypeScript,
	".cts": DialectTypeScript,
	".tsx": DialectTSX,
}

// DialectForPath detects the dialect from a file name.
func DialectForPath(path string) (SourceDialect, error) {
	ext := strings.ToLower(filepath.Ext(path))
	dialect, ok := dialectsByExtension[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, path)
	}
	return dialect, nil
}

// IsSupportedPath reports whether the file extension maps to a dialect.
func IsSupportedPath(path string) bool {
	_, ok := dialectsByExtension[strings.ToLower(filepath.Ext(path))]
	return ok
}

// String returns the string representation of the dialect.
func (d SourceDialect) String() string {
	return string(d)
}
