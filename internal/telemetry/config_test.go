package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Getters(t *testing.T) {
	t.Parallel()

	empty := &Config{}
	assert.Equal(t, DefaultServiceName, empty.GetServiceName())
	assert.Equal(t, "unknown", empty.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, empty.GetEndpoint())

	set := &Config{ServiceName: "night-feed", ServiceVersion: "1.2.3", Endpoint: "otel:4318"}
	assert.Equal(t, "night-feed", set.GetServiceName())
	assert.Equal(t, "1.2.3", set.GetServiceVersion())
	assert.Equal(t, "otel:4318", set.GetEndpoint())

	assert.InDelta(t, DefaultSampling, (&TracingConfig{}).GetSampling(), 1e-9)
	assert.InDelta(t, 0.5, (&TracingConfig{Sampling: 0.5}).GetSampling(), 1e-9)
}

func TestMetricsConfig_Exporters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		config         *MetricsConfig
		wantPrometheus bool
		wantOTLP       bool
	}{
		{name: "nil config", config: nil},
		{name: "disabled", config: &MetricsConfig{Exporters: []string{ExporterOTLP}}},
		{name: "default is prometheus", config: &MetricsConfig{Enabled: true}, wantPrometheus: true},
		{name: "otlp only", config: &MetricsConfig{Enabled: true, Exporters: []string{ExporterOTLP}}, wantOTLP: true},
		{
			name:           "both",
			config:         &MetricsConfig{Enabled: true, Exporters: []string{ExporterOTLP, ExporterPrometheus}},
			wantPrometheus: true,
			wantOTLP:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantPrometheus, tt.config.HasExporter(ExporterPrometheus))
			assert.Equal(t, tt.wantOTLP, tt.config.HasExporter(ExporterOTLP))
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		config        *Config
		errorContains string
	}{
		{name: "nil config", config: nil},
		{name: "disabled ignores bad values", config: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 7}}},
		{
			name: "valid",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 1},
				Metrics: &MetricsConfig{Enabled: true, Exporters: []string{ExporterOTLP}},
			},
		},
		{
			name:          "sampling above one",
			config:        &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			errorContains: "tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name:          "negative sampling",
			config:        &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			errorContains: "tracing: sampling",
		},
		{
			name:          "unknown exporter",
			config:        &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Exporters: []string{"statsd"}}},
			errorContains: `metrics: unknown exporter "statsd"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.errorContains != "" {
				require.ErrorContains(t, err, tt.errorContains)
				return
			}
			require.NoError(t, err)
		})
	}
}
