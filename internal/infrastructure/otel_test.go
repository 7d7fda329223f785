package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"freightpulse/pkg/contracts/domain"
)

func TestCreatePipelineMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })

	metrics, err := CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	metrics.RecordOutcome(context.Background(), domain.ProcessOutcome{
		Decision:          domain.DecisionCommit,
		HistoricalUpdated: true,
	}, 150*time.Millisecond)
	metrics.RecordOutcome(context.Background(), domain.ProcessOutcome{
		Decision: domain.DecisionPreview,
	}, 50*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["manifests_processed_total"])
	assert.True(t, names["manifest_processing_duration_seconds"])
	assert.True(t, names["history_periods_committed_total"])
}

func TestRecordOutcomeNilReceiver(t *testing.T) {
	var metrics *PipelineMetrics

	assert.NotPanics(t, func() {
		metrics.RecordOutcome(context.Background(), domain.ProcessOutcome{}, time.Second)
	})
}

func TestInitializeOTel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := InitializeOTel(DefaultOTelConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { providers.Shutdown(context.Background()) })

	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestShutdownWithoutProvider(t *testing.T) {
	providers := &OTelProviders{}
	assert.NoError(t, providers.Shutdown(context.Background()))
}
