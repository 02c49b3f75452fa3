package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestHTTPMetrics_NilPassesThrough(t *testing.T) {
	t.Parallel()

	metrics, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	mw, err := MetricsMiddleware(mp)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/api/{owner}/{repo}/updates.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/api/nefarius/HidHide/updates.json", "/api/nefarius/BthPS3/updates.json"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	}

	got := collect(t, reader)
	total, ok := got["vicius_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	assert.Equal(t, int64(2), total.DataPoints[0].Value)

	route, _ := total.DataPoints[0].Attributes.Value(attribute.Key("route"))
	assert.Equal(t, "/api/{owner}/{repo}/updates.json", route.AsString())
	status, _ := total.DataPoints[0].Attributes.Value(attribute.Key("status_code"))
	assert.Equal(t, "404", status.AsString())

	active, ok := got["vicius_http_active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

func TestRoutePattern_Unknown(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil).WithContext(context.Background())
	assert.Equal(t, unknownRoute, routePattern(req))
}

func TestArchitectureLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing header", want: "none"},
		{name: "x64", header: "x64", want: "x64"},
		{name: "case and whitespace", header: " ARM64 ", want: "arm64"},
		{name: "x86", header: "x86", want: "x86"},
		{name: "unexpected value", header: "riscv64", want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/api/nefarius/BthPS3/updates.json", nil)
			if tt.header != "" {
				req.Header.Set(ArchitectureHeader, tt.header)
			}
			assert.Equal(t, tt.want, architectureLabel(req))
		})
	}
}

func TestHTTPMetrics_RecordsArchitecture(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	mw, err := MetricsMiddleware(mp)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/api/nefarius/BthPS3/updates.json", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, arch := range []string{"x64", "x64", "arm64"} {
		req := httptest.NewRequest(http.MethodGet, "/api/nefarius/BthPS3/updates.json", nil)
		req.Header.Set(ArchitectureHeader, arch)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	total, ok := collect(t, reader)["vicius_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range total.DataPoints {
		arch, _ := dp.Attributes.Value(attribute.Key("architecture"))
		counts[arch.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"x64": 2, "arm64": 1}, counts)
}
