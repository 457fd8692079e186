package outbound

import (
	"context"
	"nextdynamic/internal/domain/messaging"
	"nextdynamic/internal/domain/valueobject"
)

// SourceParser defines the interface for turning source files into parse trees.
type SourceParser interface {
	// Parse parses source in the given dialect. Trees with recovered syntax
	// errors are returned as well; callers decide whether to use them.
	Parse(ctx context.Context, dialect valueobject.SourceDialect, source []byte) (*valueobject.ParseTree, error)

	// SupportedDialects returns the dialects the parser has grammars for.
	SupportedDialects() []valueobject.SourceDialect
}

// SyntaxVerifier checks that transformed output is still valid source.
type SyntaxVerifier interface {
	// Verify returns an error wrapping domain.ErrVerificationFailed when
	// source does not parse.
	Verify(ctx context.Context, filename string, dialect valueobject.SourceDialect, source []byte) error
}

// SourceFinder expands files and directories into the source files to process.
type SourceFinder interface {
	FindSources(ctx context.Context, roots []string) ([]string, error)
}

// TransformClient sends transform requests to a remote worker.
type TransformClient interface {
	// Transform returns the worker's reply. A reply carrying an error is
	// returned together with an error wrapping domain.ErrRemoteTransform.
	Transform(ctx context.Context, req messaging.TransformRequest) (messaging.TransformReply, error)
}
