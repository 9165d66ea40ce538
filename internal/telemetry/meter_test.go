package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	t.Parallel()

	for _, opts := range [][]MeterProviderOption{
		{},
		{WithMetricsConfig(&MetricsConfig{Enabled: false})},
	} {
		mp, err := NewMeterProvider(context.Background(), opts...)
		require.NoError(t, err)
		_, ok := mp.(noop.MeterProvider)
		assert.True(t, ok, "expected no-op meter provider")
	}
}

func TestNewMeterProvider_OTLP(t *testing.T) {
	t.Parallel()

	mp, err := NewMeterProvider(context.Background(),
		WithMetricsConfig(&MetricsConfig{Enabled: true, Exporters: []string{ExporterOTLP}}),
		WithMeterEndpoint("localhost:4318", true),
	)
	require.NoError(t, err)

	sdk, ok := mp.(*sdkmetric.MeterProvider)
	require.True(t, ok, "expected SDK meter provider")
	_ = sdk.Shutdown(context.Background())
}

func TestNewMeterProvider_PrometheusScrape(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	mp, err := NewMeterProvider(context.Background(),
		WithMetricsConfig(&MetricsConfig{Enabled: true}),
		WithPrometheusRegisterer(reg),
	)
	require.NoError(t, err)
	defer func() { _ = mp.(*sdkmetric.MeterProvider).Shutdown(context.Background()) }()

	metrics, err := NewSourceMetrics(mp)
	require.NoError(t, err)
	metrics.RecordRetry(context.Background(), "steam")

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(reg, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "horror_agg_fetch_retries")
	assert.Contains(t, rr.Body.String(), `source="steam"`)
}
