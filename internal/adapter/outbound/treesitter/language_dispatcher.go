package treesitter

import (
	"fmt"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// grammarFor returns the tree-sitter grammar of a dialect.
func grammarFor(dialect valueobject.SourceDialect) (*tree_sitter.Language, bool) {
	switch dialect {
	case valueobject.DialectJavaScript:
		return tree_sitter.NewLanguage(javascript.GetLanguage()), true
	case valueobject.DialectTypeScript:
		return tree_sitter.NewLanguage(typescript.GetLanguage()), true
	case valueobject.DialectTSX:
		return tree_sitter.NewLanguage(tsx.GetLanguage()), true
	default:
		return nil, false
	}
}

// LanguageDispatcher creates tree-sitter parsers per dialect.
type LanguageDispatcher struct {
	supportedDialects []valueobject.SourceDialect
}

// NewLanguageDispatcher creates a dispatcher for the JavaScript family.
func NewLanguageDispatcher() *LanguageDispatcher {
	return &LanguageDispatcher{
		supportedDialects: []valueobject.SourceDialect{
			valueobject.DialectJavaScript,
			valueobject.DialectTypeScript,
			valueobject.DialectTSX,
		},
	}
}

// CreateParser returns a fresh parser for the dialect. Parsers are not safe
// for concurrent use, so each parse gets its own.
func (d *LanguageDispatcher) CreateParser(dialect valueobject.SourceDialect) (*tree_sitter.Parser, error) {
	lang, ok := grammarFor(dialect)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, dialect)
	}

	parser := tree_sitter.NewParser()
	if !parser.SetLanguage(lang) {
		return nil, fmt.Errorf("failed to set %s language in tree-sitter parser", dialect)
	}
	return parser, nil
}

// GetSupportedDialects returns a copy of the supported dialects.
func (d *LanguageDispatcher) GetSupportedDialects() []valueobject.SourceDialect {
	supportedCopy := make([]valueobject.SourceDialect, len(d.supportedDialects))
	copy(supportedCopy, d.supportedDialects)
	return supportedCopy
}

// IsDialectSupported checks if the dialect has a grammar.
func (d *LanguageDispatcher) IsDialectSupported(dialect valueobject.SourceDialect) bool {
	for _, supported := range d.supportedDialects {
		if supported == dialect {
			return true
		}
	}
	return false
}
