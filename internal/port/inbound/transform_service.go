// Package inbound defines the inbound ports (interfaces) for the application layer.
// These ports represent the entry points into the application's core business logic.
package inbound

import (
	"context"
	"nextdynamic/internal/application/dto"
	"nextdynamic/internal/domain/valueobject"
)

// TransformService defines the inbound port for rewriting dynamic-loading
// helper calls.
type TransformService interface {
	// TransformSource transforms one file. Files that do not parse cleanly
	// are returned unchanged and marked as skipped.
	TransformSource(
		ctx context.Context,
		filename string,
		source []byte,
		mode valueobject.TargetMode,
	) (*dto.FileResult, error)

	// TransformFiles transforms files concurrently. Results keep the input
	// order; per-file failures are reported in FileResult.Error.
	TransformFiles(ctx context.Context, files []dto.SourceFile, mode valueobject.TargetMode) ([]*dto.FileResult, error)

	// CollectImports lists the modules loaded by helper calls of a file.
	CollectImports(ctx context.Context, filename string, source []byte) (*dto.FileImports, error)
}
