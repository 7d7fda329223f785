package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	"freightpulse/pkg/contracts/domain"
)

const (
	ServiceName    = "freightpulse"
	ServiceVersion = "1.0.0"
	MeterName      = "freightpulse"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
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
		MetricExporter: "prometheus",
		EnableMetrics:  true,
	}
}

// InitializeOTel initializes the OpenTelemetry metrics pipeline.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}

	ctx := context.Background()

	providers := &OTelProviders{Logger: logger}
	if !cfg.EnableMetrics || cfg.MetricExporter == "none" {
		return providers, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	providers.PrometheusHTTP = promhttp.Handler()

	otel.SetMeterProvider(mp)

	logger.InfoContext(ctx, "metrics initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("exporter", cfg.MetricExporter))

	return providers, nil
}

// Shutdown flushes and stops the meter provider.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// PipelineMetrics holds the application-specific instruments for the
// manifest processing pipeline.
type PipelineMetrics struct {
	ManifestsProcessed metric.Int64Counter
	ProcessingDuration metric.Float64Histogram
	PeriodsCommitted   metric.Int64Counter
}

// CreatePipelineMetrics creates the pipeline instruments on the meter.
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	manifestsProcessed, err := meter.Int64Counter(
		"manifests_processed_total",
		metric.WithDescription("Total number of manifests processed, labeled by freshness decision"),
	)
	if err != nil {
		return nil, err
	}

	processingDuration, err := meter.Float64Histogram(
		"manifest_processing_duration_seconds",
		metric.WithDescription("Manifest processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	periodsCommitted, err := meter.Int64Counter(
		"history_periods_committed_total",
		metric.WithDescription("Total number of periods committed to the historical ledger"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		ManifestsProcessed: manifestsProcessed,
		ProcessingDuration: processingDuration,
		PeriodsCommitted:   periodsCommitted,
	}, nil
}

// RecordOutcome records one processing run's metrics.
func (m *PipelineMetrics) RecordOutcome(ctx context.Context, outcome domain.ProcessOutcome, duration time.Duration) {
	if m == nil {
		return
	}
	decisionAttr := metric.WithAttributes(attribute.String("decision", string(outcome.Decision)))
	m.ManifestsProcessed.Add(ctx, 1, decisionAttr)
	m.ProcessingDuration.Record(ctx, duration.Seconds(), decisionAttr)
	if outcome.HistoricalUpdated {
		m.PeriodsCommitted.Add(ctx, 1)
	}
}
