package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordSource(ctx, "resolve", "cache")
	m.RecordSource(ctx, "resolve", "api")
	m.RecordFetch(ctx, "ok")
	m.RecordLLM(ctx, "openrouter", "error")
	m.RecordRateLimit(ctx, "resolve-ingredients", false)

	assert.Equal(t, int64(2), collectSum(t, reader, "ingredient.resolve.source"))
	assert.Equal(t, int64(1), collectSum(t, reader, "ingredient.chemistry.fetch"))
	assert.Equal(t, int64(1), collectSum(t, reader, "ingredient.llm.request"))
	assert.Equal(t, int64(1), collectSum(t, reader, "ingredient.ratelimit.decision"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSource(context.Background(), "resolve", "local")
		m.RecordFetch(context.Background(), "ok")
		m.RecordLLM(context.Background(), "p", "ok")
		m.RecordRateLimit(context.Background(), "e", true)
	})
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
