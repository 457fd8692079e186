// Package esbuild verifies transformed sources by handing them to esbuild's
// transform API. A source esbuild rejects is reported as a verification
// failure.
package esbuild

import (
	"context"
	"fmt"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/domain/errors/domain"
	"nextdynamic/internal/domain/valueobject"
	"nextdynamic/internal/port/outbound"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

var _ outbound.SyntaxVerifier = (*Verifier)(nil)

// Verifier implements outbound.SyntaxVerifier.
type Verifier struct {
	target api.Target
}

// NewVerifier creates a Verifier targeting the latest ECMAScript syntax.
func NewVerifier() *Verifier {
	return &Verifier{target: api.ESNext}
}

// Verify returns an error wrapping domain.ErrVerificationFailed when esbuild
// reports errors for source.
func (v *Verifier) Verify(ctx context.Context, filename string, dialect valueobject.SourceDialect, source []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loader, err := loaderFor(dialect)
	if err != nil {
		return err
	}

	result := api.Transform(string(source), api.TransformOptions{ //nolint:exhaustruct
		Loader:     loader,
		Target:     v.target,
		Format:     api.FormatESModule,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}

	slogger.Debug(ctx, "esbuild rejected transformed source", slogger.Fields{
		"filename": filename,
		"errors":   len(result.Errors),
	})
	return fmt.Errorf("%w: %s: %s", domain.ErrVerificationFailed, filename, formatMessages(result.Errors))
}

func loaderFor(dialect valueobject.SourceDialect) (api.Loader, error) {
	switch dialect {
	case valueobject.DialectJavaScript:
		return api.LoaderJSX, nil
	case valueobject.DialectTypeScript:
		return api.LoaderTS, nil
	case valueobject.DialectTSX:
		return api.LoaderTSX, nil
	default:
		return api.LoaderNone, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, dialect)
	}
}

func formatMessages(messages []api.Message) string {
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Location == nil {
			parts = append(parts, msg.Text)
			continue
		}
		parts = append(parts, fmt.Sprintf("%d:%d: %s", msg.Location.Line, msg.Location.Column+1, msg.Text))
	}
	return strings.Join(parts, "; ")
}
