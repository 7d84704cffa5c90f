package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"mlbcli/internal/config"
)

const (
	ServiceName    = "mlb-stats-pipeline"
	ServiceVersion = "v1.0.0"
	MeterName      = "mlbcli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "log", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers.
// The pipeline is a batch process, so metrics are collected through a manual
// reader and written to the log when the run shuts down rather than being
// scraped from an endpoint.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	MetricReader   *sdkmetric.ManualReader
	Tracer         trace.Tracer
	Meter          metric.Meter
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "none",
		MetricExporter: "log",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0, // Sample all traces; runs are short-lived
	}
}

// OTelConfigFrom builds the OTel configuration from the application
// telemetry settings, falling back to defaults for anything unset
func OTelConfigFrom(t config.TelemetryConfig) *OTelConfig {
	cfg := DefaultOTelConfig()

	if t.Environment != "" {
		cfg.Environment = t.Environment
	}
	if t.TraceExporter != "" {
		cfg.TraceExporter = t.TraceExporter
	}
	if t.MetricExporter != "" {
		cfg.MetricExporter = t.MetricExporter
	}
	cfg.EnableTracing = t.EnableTracing
	cfg.EnableMetrics = t.EnableMetrics
	if t.SampleRatio > 0 {
		cfg.SampleRatio = t.SampleRatio
	}

	return cfg
}

// InitializeOTel initializes OpenTelemetry for a pipeline run
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	// Create resource
	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
	}

	// Initialize tracing
	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	// Initialize metrics
	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	// Set up global propagators for trace context
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		// No exporter. Spans are still created so attributes and events
		// reach the log correlation helpers, but nothing is emitted.
		providers.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		providers.Tracer = providers.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetTracerProvider(providers.TracerProvider)
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	// Set global tracer provider
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "log":
		// Manual reader: instruments accumulate during the run and the
		// snapshot is written to the log on shutdown.
		reader := sdkmetric.NewManualReader()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(reader),
		)

		providers.MetricReader = reader
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		// Set global meter provider
		otel.SetMeterProvider(mp)

	case "none":
		// No exporter - metrics disabled
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// CreatePipelineMetrics creates pipeline-specific metrics
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	// Run metrics
	runsTotal, err := meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"pipeline_run_duration_seconds",
		metric.WithDescription("Pipeline run duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runErrors, err := meter.Int64Counter(
		"pipeline_run_errors_total",
		metric.WithDescription("Total number of failed pipeline runs"),
	)
	if err != nil {
		return nil, err
	}

	// Stage metrics
	stageExecutionsTotal, err := meter.Int64Counter(
		"pipeline_stage_executions_total",
		metric.WithDescription("Total number of stage executions"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Stage execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"pipeline_stage_errors_total",
		metric.WithDescription("Total number of stage errors"),
	)
	if err != nil {
		return nil, err
	}

	// Data metrics
	rowsLoaded, err := meter.Int64Counter(
		"pipeline_rows_loaded_total",
		metric.WithDescription("Rows read from source tables"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"pipeline_rows_dropped_total",
		metric.WithDescription("Rows removed by the drop-row strategy"),
	)
	if err != nil {
		return nil, err
	}

	cellsImputed, err := meter.Int64Counter(
		"pipeline_cells_imputed_total",
		metric.WithDescription("Cells filled in by imputation"),
	)
	if err != nil {
		return nil, err
	}

	rowsMerged, err := meter.Int64Counter(
		"pipeline_rows_merged_total",
		metric.WithDescription("Rows in the merged output table"),
	)
	if err != nil {
		return nil, err
	}

	cellsAbsent, err := meter.Int64Counter(
		"pipeline_cells_absent_total",
		metric.WithDescription("Cells left absent after merging"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		RunsTotal:   runsTotal,
		RunDuration: runDuration,
		RunErrors:   runErrors,

		StageExecutionsTotal: stageExecutionsTotal,
		StageDuration:        stageDuration,
		StageErrors:          stageErrors,

		RowsLoaded:   rowsLoaded,
		RowsDropped:  rowsDropped,
		CellsImputed: cellsImputed,
		RowsMerged:   rowsMerged,
		CellsAbsent:  cellsAbsent,
	}, nil
}

// PipelineMetrics holds all pipeline-specific metrics
type PipelineMetrics struct {
	// Run metrics
	RunsTotal   metric.Int64Counter
	RunDuration metric.Float64Histogram
	RunErrors   metric.Int64Counter

	// Stage metrics
	StageExecutionsTotal metric.Int64Counter
	StageDuration        metric.Float64Histogram
	StageErrors          metric.Int64Counter

	// Data metrics
	RowsLoaded   metric.Int64Counter
	RowsDropped  metric.Int64Counter
	CellsImputed metric.Int64Counter
	RowsMerged   metric.Int64Counter
	CellsAbsent  metric.Int64Counter
}

// DumpMetrics collects the current metric snapshot and writes it to the log.
// Called once at the end of a run, before provider shutdown.
func (p *OTelProviders) DumpMetrics(ctx context.Context) error {
	if p.MetricReader == nil {
		return nil
	}

	var rm metricdata.ResourceMetrics
	if err := p.MetricReader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("metric collection: %w", err)
	}

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				p.Logger.InfoContext(ctx, "metric", slog.String("name", m.Name), slog.Int64("value", total))
			case metricdata.Sum[float64]:
				var total float64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				p.Logger.InfoContext(ctx, "metric", slog.String("name", m.Name), slog.Float64("value", total))
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					p.Logger.InfoContext(ctx, "metric",
						slog.String("name", m.Name),
						slog.Uint64("count", dp.Count),
						slog.Float64("sum", dp.Sum))
				}
			}
		}
	}

	return nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if err := p.DumpMetrics(ctx); err != nil {
		errs = append(errs, err)
	}

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// SpanFromContext returns the current span from context
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}

	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}

// RecordRunMetrics records metrics for a completed pipeline run
func RecordRunMetrics(ctx context.Context, metrics *PipelineMetrics, runID string, duration time.Duration, success bool, err error) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("run.id", runID),
	}

	metrics.RunsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if !success {
		statusAttr = attribute.String("status", "failure")
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.RunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	if err != nil {
		errorAttrs := append(attrs, attribute.String("error.type", fmt.Sprintf("%T", err)))
		metrics.RunErrors.Add(ctx, 1, metric.WithAttributes(errorAttrs...))
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("run.metrics_recorded",
			trace.WithAttributes(
				attribute.String("run.id", runID),
				attribute.Bool("success", success),
				attribute.Float64("duration_seconds", duration.Seconds()),
			),
		)
	}
}

// RecordStageMetrics records metrics for a stage execution
func RecordStageMetrics(ctx context.Context, metrics *PipelineMetrics, runID, stageID string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("run.id", runID),
		attribute.String("stage.id", stageID),
	}

	metrics.StageExecutionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	statusAttr := attribute.String("status", "success")
	if !success {
		statusAttr = attribute.String("status", "failure")
	}
	durationAttrs := append(attrs, statusAttr)
	metrics.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(durationAttrs...))

	if !success {
		metrics.StageErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordTableMetrics records row counts observed while processing a table
func RecordTableMetrics(ctx context.Context, metrics *PipelineMetrics, table string, loaded, dropped, imputed int64) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("table", table),
	}

	if loaded > 0 {
		metrics.RowsLoaded.Add(ctx, loaded, metric.WithAttributes(attrs...))
	}
	if dropped > 0 {
		metrics.RowsDropped.Add(ctx, dropped, metric.WithAttributes(attrs...))
	}
	if imputed > 0 {
		metrics.CellsImputed.Add(ctx, imputed, metric.WithAttributes(attrs...))
	}
}

// RecordMergeMetrics records the size of the merged output table
func RecordMergeMetrics(ctx context.Context, metrics *PipelineMetrics, driver string, rows, absent int64) {
	if metrics == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("driver", driver),
	}

	if rows > 0 {
		metrics.RowsMerged.Add(ctx, rows, metric.WithAttributes(attrs...))
	}
	if absent > 0 {
		metrics.CellsAbsent.Add(ctx, absent, metric.WithAttributes(attrs...))
	}
}
