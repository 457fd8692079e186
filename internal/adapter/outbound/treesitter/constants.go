package treesitter

// Parser limits.
const (
	// DefaultMaxSourceSize is the largest source accepted by the parser.
	DefaultMaxSourceSize = 10 * 1024 * 1024 // 10MB

	// grammarVersion identifies the grammar bundle recorded in parse metadata.
	grammarVersion = "go-sitter-forest"
)
