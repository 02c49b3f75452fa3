package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		cfg             *Config
		expectNoOp      bool
		expectPromScrap bool
		errorContains   string
	}{
		{name: "no config", expectNoOp: true},
		{name: "disabled", cfg: &Config{Enabled: false}, expectNoOp: true},
		{
			name:       "enabled without signals",
			cfg:        &Config{Enabled: true, Tracing: &TracingConfig{}, Metrics: &MetricsConfig{}},
			expectNoOp: true,
		},
		{
			name:            "prometheus metrics",
			cfg:             &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Exporters: []string{ExporterPrometheus}}},
			expectPromScrap: true,
		},
		{
			name:          "invalid sampling",
			cfg:           &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			errorContains: "invalid telemetry configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			tel, err := New(ctx, WithTelemetryConfig(tt.cfg))
			if tt.errorContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}
			require.NoError(t, err)
			defer func() { _ = tel.Shutdown(ctx) }()

			assert.NotEmpty(t, tel.InstanceID())
			assert.NotNil(t, tel.Tracer("test"))
			assert.NotNil(t, tel.Meter("test"))

			if tt.expectNoOp {
				_, ok := tel.TracerProvider().(tracenoop.TracerProvider)
				assert.True(t, ok)
				_, ok = tel.MeterProvider().(noop.MeterProvider)
				assert.True(t, ok)
			}

			handler := tel.MetricsHandler()
			if !tt.expectPromScrap {
				assert.Nil(t, handler)
				return
			}
			require.NotNil(t, handler)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}
