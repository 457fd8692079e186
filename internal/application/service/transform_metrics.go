package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names following OpenTelemetry semantic conventions.
const (
	TransformDurationHistogramName = "nextdynamic_transform_duration_seconds"
	TransformFilesCounterName      = "nextdynamic_transform_files_total"
	TransformCallSitesCounterName  = "nextdynamic_transform_call_sites_total"
	TransformImportsCounterName    = "nextdynamic_transform_imports_total"
)

// Attribute keys.
const (
	AttrDialect      = "dialect"
	AttrTargetMode   = "target_mode"
	AttrFileOutcome  = "file_outcome"
	AttrCallOutcome  = "call_outcome"
	AttrSkipReason   = "skip_reason"
	AttrImportAction = "import_action"
)

// File outcomes.
const (
	FileOutcomeChanged   = "changed"
	FileOutcomeUnchanged = "unchanged"
	FileOutcomeSkipped   = "skipped"
	FileOutcomeFailed    = "failed"
)

// getTransformLatencyBuckets returns bucket boundaries for per-file transform
// latencies (100µs to 5s).
func getTransformLatencyBuckets() []float64 {
	return []float64{
		0.0001, // 100µs
		0.0005, // 500µs
		0.001,  // 1ms
		0.005,  // 5ms
		0.01,   // 10ms
		0.05,   // 50ms
		0.1,    // 100ms
		0.5,    // 500ms
		1.0,    // 1s
		5.0,    // 5s
	}
}

// TransformMetrics records OpenTelemetry metrics for the transform pass.
type TransformMetrics struct {
	duration  metric.Float64Histogram
	files     metric.Int64Counter
	callSites metric.Int64Counter
	imports   metric.Int64Counter
}

// NewTransformMetrics creates metrics using the global meter provider.
func NewTransformMetrics() (*TransformMetrics, error) {
	return NewTransformMetricsWithProvider(otel.GetMeterProvider())
}

// NewTransformMetricsWithProvider creates metrics with a specific meter provider.
func NewTransformMetricsWithProvider(provider metric.MeterProvider) (*TransformMetrics, error) {
	meter := provider.Meter("nextdynamic/service", metric.WithInstrumentationVersion("1.0.0"))

	duration, err := meter.Float64Histogram(
		TransformDurationHistogramName,
		metric.WithDescription("Duration of transforming one file in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(getTransformLatencyBuckets()...),
	)
	if err != nil {
		return nil, err
	}
	files, err := meter.Int64Counter(
		TransformFilesCounterName,
		metric.WithDescription("Files processed by the transform"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	callSites, err := meter.Int64Counter(
		TransformCallSitesCounterName,
		metric.WithDescription("Helper call sites seen by the transform"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	imports, err := meter.Int64Counter(
		TransformImportsCounterName,
		metric.WithDescription("Module id imports inserted or reused"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &TransformMetrics{
		duration:  duration,
		files:     files,
		callSites: callSites,
		imports:   imports,
	}, nil
}

// RecordFile records the duration and outcome of one file.
func (m *TransformMetrics) RecordFile(ctx context.Context, dialect, mode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrDialect, dialect),
		attribute.String(AttrTargetMode, mode),
		attribute.String(AttrFileOutcome, outcome),
	)
	m.duration.Record(ctx, duration.Seconds(), attrs)
	m.files.Add(ctx, 1, attrs)
}

// RecordCallSite records one helper call. skipReason is empty for rewritten calls.
func (m *TransformMetrics) RecordCallSite(ctx context.Context, mode, skipReason string) {
	if m == nil {
		return
	}
	outcome := "rewritten"
	if skipReason != "" {
		outcome = "skipped"
	}
	m.callSites.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrTargetMode, mode),
		attribute.String(AttrCallOutcome, outcome),
		attribute.String(AttrSkipReason, skipReason),
	))
}

// RecordImports records inserted and reused module id imports.
func (m *TransformMetrics) RecordImports(ctx context.Context, inserted, reused int) {
	if m == nil {
		return
	}
	if inserted > 0 {
		m.imports.Add(ctx, int64(inserted), metric.WithAttributes(attribute.String(AttrImportAction, "inserted")))
	}
	if reused > 0 {
		m.imports.Add(ctx, int64(reused), metric.WithAttributes(attribute.String(AttrImportAction, "reused")))
	}
}
