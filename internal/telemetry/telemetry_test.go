package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	for _, opts := range [][]Option{
		{},
		{WithTelemetryConfig(&Config{Enabled: false, Metrics: &MetricsConfig{Enabled: true}})},
	} {
		tel, err := New(context.Background(), opts...)
		require.NoError(t, err)

		_, ok := tel.TracerProvider().(tracenoop.TracerProvider)
		assert.True(t, ok)
		_, ok = tel.MeterProvider().(noop.MeterProvider)
		assert.True(t, ok)
		assert.Nil(t, tel.MetricsHandler())
		require.NoError(t, tel.Shutdown(context.Background()))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: 2},
	}))
	require.ErrorContains(t, err, "invalid telemetry configuration")
}

func TestNew_Enabled(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tel, err := New(context.Background(),
		WithTelemetryConfig(&Config{
			Enabled:  true,
			Insecure: true,
			Tracing:  &TracingConfig{Enabled: true, Sampling: 1},
			Metrics:  &MetricsConfig{Enabled: true},
		}),
		WithTracerOptions(WithSpanExporter(exporter)),
	)
	require.NoError(t, err)

	_, ok := tel.TracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok)
	_, ok = tel.MeterProvider().(*sdkmetric.MeterProvider)
	assert.True(t, ok)

	_, span := tel.Tracer("test").Start(context.Background(), "refresh")
	span.End()
	assert.Len(t, exporter.GetSpans(), 1)

	cacheMetrics, err := NewCacheMetrics(tel.MeterProvider())
	require.NoError(t, err)
	cacheMetrics.RecordLookup(context.Background(), "xbox", LookupHit)

	handler := tel.MetricsHandler()
	require.NotNil(t, handler)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "horror_agg_cache_lookups")
	assert.Contains(t, rr.Body.String(), `service_name="horror-aggregator"`)

	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_OTLPMetricsOnlyHasNoHandler(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background(), WithTelemetryConfig(&Config{
		Enabled:  true,
		Insecure: true,
		Metrics:  &MetricsConfig{Enabled: true, Exporters: []string{ExporterOTLP}},
	}))
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	assert.Nil(t, tel.MetricsHandler())
}
