package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// CacheMetricsMeterName is the meter used by the release cache
	CacheMetricsMeterName = "github.com/stacklok/vicius-manifest-server/cache"

	// UpstreamMetricsMeterName is the meter used for upstream release API calls
	UpstreamMetricsMeterName = "github.com/stacklok/vicius-manifest-server/upstream"

	// ManifestMetricsMeterName is the meter used by the manifest builder
	ManifestMetricsMeterName = "github.com/stacklok/vicius-manifest-server/manifest"
)

// CacheMetrics counts release cache lookups. It satisfies cache.StatsRecorder.
type CacheMetrics struct {
	lookups metric.Int64Counter
}

// NewCacheMetrics creates cache instruments. A nil provider yields nil (no-op) metrics.
func NewCacheMetrics(provider metric.MeterProvider) (*CacheMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	lookups, err := provider.Meter(CacheMetricsMeterName).Int64Counter(
		"vicius_release_cache_lookups_total",
		metric.WithDescription("Release cache lookups by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	return &CacheMetrics{lookups: lookups}, nil
}

// RecordHit counts a lookup served from the cache
func (m *CacheMetrics) RecordHit(ctx context.Context, cache string) {
	m.record(ctx, cache, "hit")
}

// RecordMiss counts a lookup that had to go upstream
func (m *CacheMetrics) RecordMiss(ctx context.Context, cache string) {
	m.record(ctx, cache, "miss")
}

func (m *CacheMetrics) record(ctx context.Context, cache, result string) {
	if m == nil || m.lookups == nil {
		return
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.String("result", result),
	))
}

// UpstreamMetrics records calls to the release hosting API
type UpstreamMetrics struct {
	requestDuration metric.Float64Histogram
}

// NewUpstreamMetrics creates upstream instruments. A nil provider yields nil (no-op) metrics.
func NewUpstreamMetrics(provider metric.MeterProvider) (*UpstreamMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	requestDuration, err := provider.Meter(UpstreamMetricsMeterName).Float64Histogram(
		"vicius_upstream_request_duration_seconds",
		metric.WithDescription("Duration of upstream release API calls in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	return &UpstreamMetrics{requestDuration: requestDuration}, nil
}

// RecordRequest records one upstream call; operation is "latest" or "all"
func (m *UpstreamMetrics) RecordRequest(ctx context.Context, operation string, duration time.Duration, success bool) {
	if m == nil || m.requestDuration == nil {
		return
	}

	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	))
}

// ManifestMetrics records manifest builds
type ManifestMetrics struct {
	builds          metric.Int64Counter
	releasesDropped metric.Int64Counter
}

// NewManifestMetrics creates manifest instruments. A nil provider yields nil (no-op) metrics.
func NewManifestMetrics(provider metric.MeterProvider) (*ManifestMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ManifestMetricsMeterName)

	builds, err := meter.Int64Counter(
		"vicius_manifest_builds_total",
		metric.WithDescription("Manifest builds by product and outcome"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return nil, err
	}

	releasesDropped, err := meter.Int64Counter(
		"vicius_manifest_releases_dropped_total",
		metric.WithDescription("Upstream releases left out of a manifest"),
		metric.WithUnit("{release}"),
	)
	if err != nil {
		return nil, err
	}

	return &ManifestMetrics{builds: builds, releasesDropped: releasesDropped}, nil
}

// RecordBuild counts one manifest build; outcome is e.g. "ok", "not_found" or "error"
func (m *ManifestMetrics) RecordBuild(ctx context.Context, repository, outcome string) {
	if m == nil || m.builds == nil {
		return
	}
	m.builds.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("outcome", outcome),
	))
}

// RecordReleaseDropped counts a release skipped during a bulk build
func (m *ManifestMetrics) RecordReleaseDropped(ctx context.Context, repository, reason string) {
	if m == nil || m.releasesDropped == nil {
		return
	}
	m.releasesDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repository", repository),
		attribute.String("reason", reason),
	))
}
