package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFromEnvDisabled(t *testing.T) {
	t.Setenv(envEnabled, "")

	rec, err := FromEnv(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &Noop{}, rec)
	assert.NoError(t, rec.Shutdown(context.Background()))
}

func TestOtelIncrement(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	counters, err := newCounters(provider.Meter(meterName))
	require.NoError(t, err)
	rec := &Otel{counters: counters, shutdownFuncs: []func(context.Context) error{provider.Shutdown}}

	rec.Increment(ctx, Created, map[string]string{"source.type": "video/mp4"})
	rec.Increment(ctx, Created, nil)
	rec.Increment(ctx, Name("not.a.metric"), nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var total int64
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != string(Created) {
			continue
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
	}
	assert.Equal(t, int64(2), total)
	assert.NoError(t, rec.Shutdown(ctx))
}
