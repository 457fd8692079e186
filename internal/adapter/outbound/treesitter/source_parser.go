package treesitter

import (
	"context"
	"fmt"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"
	"time"
)

// SourceParser parses JavaScript, TypeScript and TSX sources with tree-sitter
// and converts the result into domain parse trees.
type SourceParser struct {
	dispatcher    *LanguageDispatcher
	maxSourceSize int
}

// NewSourceParser creates a parser for the JavaScript family of dialects.
func NewSourceParser() *SourceParser {
	return &SourceParser{
		dispatcher:    NewLanguageDispatcher(),
		maxSourceSize: DefaultMaxSourceSize,
	}
}

// Parse parses source in the given dialect.
func (p *SourceParser) Parse(
	ctx context.Context,
	dialect valueobject.SourceDialect,
	source []byte,
) (*valueobject.ParseTree, error) {
	if len(source) == 0 {
		return nil, domain.ErrEmptySource
	}
	if len(source) > p.maxSourceSize {
		return nil, fmt.Errorf("%w: source of %d bytes exceeds limit of %d", domain.ErrParseFailed, len(source), p.maxSourceSize)
	}

	parser, err := p.dispatcher.CreateParser(dialect)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	tree, err := parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: tree-sitter parsing failed: %w", domain.ErrParseFailed, err)
	}
	defer tree.Close()
	parseDuration := time.Since(startTime)

	rootNode, nodeCount, maxDepth := convertTreeSitterNode(tree.RootNode(), 0)
	if rootNode == nil {
		return nil, fmt.Errorf("%w: tree-sitter returned an empty tree", domain.ErrParseFailed)
	}

	metadata, err := valueobject.NewParseMetadata(parseDuration, grammarVersion+"/"+dialect.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create parse metadata: %w", err)
	}
	metadata.NodeCount = nodeCount
	metadata.MaxDepth = maxDepth
	metadata.ErrorCount = countErrors(rootNode)

	parseTree, err := valueobject.NewParseTree(dialect, rootNode, source, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse tree: %w", err)
	}

	slogger.Debug(ctx, "Source parsed successfully", slogger.Fields{
		"dialect":        dialect.String(),
		"source_length":  len(source),
		"node_count":     nodeCount,
		"max_depth":      maxDepth,
		"error_count":    metadata.ErrorCount,
		"parse_duration": parseDuration.String(),
	})

	return parseTree, nil
}

// SupportedDialects returns the dialects the parser has grammars for.
func (p *SourceParser) SupportedDialects() []valueobject.SourceDialect {
	return p.dispatcher.GetSupportedDialects()
}
