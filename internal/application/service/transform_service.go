package service

import (
	"context"
	"errors"
	"fmt"
	"nextdynamic/internal/application/common"
	"nextdynamic/internal/application/common/slogger"
	"nextdynamic/internal/application/dto"
	"nextdynamic/internal/domain/service/dynamicimport"
	"nextdynamic/internal/domain/valueobject"
	"nextdynamic/internal/port/inbound"
	"nextdynamic/internal/port/outbound"
	"time"

	"golang.org/x/sync/errgroup"
)

// SkipReasonSyntaxErrors marks files left untouched because they did not parse cleanly.
const SkipReasonSyntaxErrors = "syntax-errors"

var _ inbound.TransformService = (*TransformService)(nil)

// TransformServiceConfig holds the settings of a TransformService.
type TransformServiceConfig struct {
	// Options configures the pass. Mode is ignored; it is chosen per call.
	Options dynamicimport.Options
	// VerifyOutput re-parses changed output with the SyntaxVerifier.
	VerifyOutput bool
	// Concurrency bounds TransformFiles. Zero means one file per CPU.
	Concurrency int
}

// TransformService parses files and runs the dynamic import pass over them.
type TransformService struct {
	parser       outbound.SourceParser
	verifier     outbound.SyntaxVerifier
	metrics      *TransformMetrics
	transformers map[valueobject.TargetMode]*dynamicimport.Transformer
	options      dynamicimport.Options
	verify       bool
	concurrency  int
}

// NewTransformService creates a TransformService. verifier and metrics may be
// nil; a nil verifier disables VerifyOutput.
func NewTransformService(
	parser outbound.SourceParser,
	verifier outbound.SyntaxVerifier,
	metrics *TransformMetrics,
	config TransformServiceConfig,
) (*TransformService, error) {
	if parser == nil {
		return nil, errors.New("parser cannot be nil")
	}

	transformers := make(map[valueobject.TargetMode]*dynamicimport.Transformer)
	for _, mode := range valueobject.AllTargetModes() {
		opts := config.Options
		opts.Mode = mode
		transformer, err := dynamicimport.NewTransformer(opts)
		if err != nil {
			return nil, common.WrapServiceError(common.OpCreatePass, err)
		}
		transformers[mode] = transformer
	}

	return &TransformService{
		parser:       parser,
		verifier:     verifier,
		metrics:      metrics,
		transformers: transformers,
		options:      transformers[valueobject.TargetModeDevClient].Options(),
		verify:       config.VerifyOutput && verifier != nil,
		concurrency:  common.ApplyConcurrencyDefaults(config.Concurrency),
	}, nil
}

// TransformSource transforms one file for the given mode.
func (s *TransformService) TransformSource(
	ctx context.Context,
	filename string,
	source []byte,
	mode valueobject.TargetMode,
) (*dto.FileResult, error) {
	start := time.Now()
	transformer, ok := s.transformers[mode]
	if !ok {
		_, err := valueobject.NewTargetMode(mode.String())
		return nil, err
	}
	dialect, err := valueobject.DialectForPath(filename)
	if err != nil {
		return nil, common.WrapFileError(common.OpDetectDialect, filename, err)
	}

	result := &dto.FileResult{
		Path:    filename,
		Dialect: dialect.String(),
		Mode:    mode.String(),
		Output:  source,
	}
	if len(source) == 0 {
		s.finish(ctx, result, FileOutcomeUnchanged, start)
		return result, nil
	}

	tree, err := s.parser.Parse(ctx, dialect, source)
	if err != nil {
		s.metrics.RecordFile(ctx, result.Dialect, result.Mode, FileOutcomeFailed, time.Since(start))
		return nil, common.WrapFileError(common.OpParseSource, filename, err)
	}
	if tree.HasSyntaxErrors() {
		result.Skipped = true
		result.SkipReason = SkipReasonSyntaxErrors
		slogger.Warn(ctx, "Skipping file with syntax errors", slogger.Fields{"path": filename})
		s.finish(ctx, result, FileOutcomeSkipped, start)
		return result, nil
	}

	transformed, err := transformer.Transform(tree)
	if err != nil {
		s.metrics.RecordFile(ctx, result.Dialect, result.Mode, FileOutcomeFailed, time.Since(start))
		return nil, common.WrapFileError(common.OpTransformSource, filename, err)
	}

	if s.verify && transformed.Changed {
		if err := s.verifier.Verify(ctx, filename, dialect, transformed.Output); err != nil {
			s.metrics.RecordFile(ctx, result.Dialect, result.Mode, FileOutcomeFailed, time.Since(start))
			return nil, common.WrapFileError(common.OpVerifyOutput, filename, err)
		}
	}

	result.Output = transformed.Output
	result.Changed = transformed.Changed
	result.CallSites = transformed.CallSites
	result.ImportsInserted = transformed.ImportsInserted
	result.ImportsReused = transformed.ImportsReused

	for _, site := range transformed.CallSites {
		s.metrics.RecordCallSite(ctx, result.Mode, string(site.SkipReason))
		if site.SkipReason != dynamicimport.SkipNone {
			slogger.Debug(ctx, "Skipped helper call", slogger.Fields{
				"path":        filename,
				"line":        site.Line,
				"skip_reason": string(site.SkipReason),
			})
		}
	}
	s.metrics.RecordImports(ctx, transformed.ImportsInserted, transformed.ImportsReused)

	outcome := FileOutcomeUnchanged
	if result.Changed {
		outcome = FileOutcomeChanged
	}
	s.finish(ctx, result, outcome, start)
	return result, nil
}

func (s *TransformService) finish(ctx context.Context, result *dto.FileResult, outcome string, start time.Time) {
	result.Duration = time.Since(start)
	s.metrics.RecordFile(ctx, result.Dialect, result.Mode, outcome, result.Duration)
	slogger.Debug(ctx, "Transformed file", slogger.Fields{
		"path":       result.Path,
		"mode":       result.Mode,
		"outcome":    outcome,
		"call_sites": len(result.CallSites),
		"duration":   result.Duration.String(),
	})
}

// TransformFiles transforms files with bounded concurrency. Only context
// cancellation aborts the batch.
func (s *TransformService) TransformFiles(
	ctx context.Context,
	files []dto.SourceFile,
	mode valueobject.TargetMode,
) ([]*dto.FileResult, error) {
	if _, ok := s.transformers[mode]; !ok {
		_, err := valueobject.NewTargetMode(mode.String())
		return nil, err
	}

	results := make([]*dto.FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.TransformSource(gctx, file.Path, file.Source, mode)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slogger.ErrorWithError(gctx, err, "Failed to transform file", slogger.Fields{"path": file.Path})
				result = &dto.FileResult{Path: file.Path, Mode: mode.String(), Output: file.Source, Error: err.Error()}
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("transform cancelled: %w", err)
	}
	return results, nil
}

// CollectImports lists the modules loaded by helper calls of a file.
func (s *TransformService) CollectImports(ctx context.Context, filename string, source []byte) (*dto.FileImports, error) {
	dialect, err := valueobject.DialectForPath(filename)
	if err != nil {
		return nil, common.WrapFileError(common.OpDetectDialect, filename, err)
	}
	imports := &dto.FileImports{Path: filename, Imports: []dynamicimport.ImportSource{}}
	if len(source) == 0 {
		return imports, nil
	}

	tree, err := s.parser.Parse(ctx, dialect, source)
	if err != nil {
		return nil, common.WrapFileError(common.OpParseSource, filename, err)
	}
	if found := dynamicimport.CollectImportSources(tree, s.options); found != nil {
		imports.Imports = found
	}
	return imports, nil
}
