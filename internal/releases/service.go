// Package releases serves repository releases from an in-memory cache in
// front of the rate-limited release hosting API.
package releases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/vicius-manifest-server/internal/cache"
	"github.com/stacklok/vicius-manifest-server/internal/github"
	"github.com/stacklok/vicius-manifest-server/internal/otel"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

var (
	// ErrNotFound is returned when the repository or the requested release does not exist
	ErrNotFound = errors.New("release not found")

	// ErrUpstreamUnavailable is returned when the release API could not be reached or failed
	ErrUpstreamUnavailable = errors.New("upstream release API unavailable")
)

const (
	cacheLatest = "latest"
	cacheAll    = "all"
)

// Service returns releases of a repository. Results are shared between
// callers and must be treated as read-only.
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service
type Service interface {
	// GetLatestRelease returns the newest release of owner/repo
	GetLatestRelease(ctx context.Context, owner, repo string) (*github.Release, error)
	// GetAllReleases returns every release of owner/repo in upstream order
	GetAllReleases(ctx context.Context, owner, repo string) ([]github.Release, error)
}

// RepoKey identifies a repository. Matching is literal and case-sensitive.
type RepoKey struct {
	Owner string
	Repo  string
}

func (k RepoKey) String() string {
	return k.Owner + "/" + k.Repo
}

type cachedService struct {
	source  Source
	latest  *cache.Cache[RepoKey, *github.Release]
	all     *cache.Cache[RepoKey, []github.Release]
	tracer  trace.Tracer
	metrics *telemetry.UpstreamMetrics
}

// Option configures the release service
type Option func(*serviceConfig)

type serviceConfig struct {
	cacheOpts []cache.Option
	tracer    trace.Tracer
	metrics   *telemetry.UpstreamMetrics
}

// WithTTL sets how long fetched releases are served from memory
func WithTTL(ttl time.Duration) Option {
	return func(c *serviceConfig) {
		c.cacheOpts = append(c.cacheOpts, cache.WithTTL(ttl))
	}
}

// WithBypass disables caching; every call goes upstream
func WithBypass(bypass bool) Option {
	return func(c *serviceConfig) {
		c.cacheOpts = append(c.cacheOpts, cache.WithBypass(bypass))
	}
}

// WithClock replaces time.Now for cache expiry
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) {
		c.cacheOpts = append(c.cacheOpts, cache.WithClock(now))
	}
}

// WithCacheMetrics reports cache hits and misses
func WithCacheMetrics(m *telemetry.CacheMetrics) Option {
	return func(c *serviceConfig) {
		if m != nil {
			c.cacheOpts = append(c.cacheOpts, cache.WithStatsRecorder(m))
		}
	}
}

// WithUpstreamMetrics records upstream call durations
func WithUpstreamMetrics(m *telemetry.UpstreamMetrics) Option {
	return func(c *serviceConfig) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for upstream spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *serviceConfig) {
		c.tracer = tracer
	}
}

// NewService returns a Service that caches successful lookups of source.
// Latest-release and all-releases lookups are cached independently.
func NewService(source Source, opts ...Option) Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cachedService{
		source:  source,
		latest:  cache.New[RepoKey, *github.Release](cacheLatest, cfg.cacheOpts...),
		all:     cache.New[RepoKey, []github.Release](cacheAll, cfg.cacheOpts...),
		tracer:  cfg.tracer,
		metrics: cfg.metrics,
	}
}

// GetLatestRelease implements Service.GetLatestRelease
func (s *cachedService) GetLatestRelease(ctx context.Context, owner, repo string) (*github.Release, error) {
	key := RepoKey{Owner: owner, Repo: repo}

	release, err := s.latest.Get(ctx, key, func(ctx context.Context) (*github.Release, error) {
		var release *github.Release
		err := s.fetch(ctx, key, cacheLatest, func(ctx context.Context) error {
			var err error
			release, err = s.source.LatestRelease(ctx, owner, repo)
			if err == nil && release == nil {
				err = github.ErrNotFound
			}
			return err
		})
		return release, err
	})
	if err != nil {
		return nil, err
	}
	return release.Clone(), nil
}

// GetAllReleases implements Service.GetAllReleases
func (s *cachedService) GetAllReleases(ctx context.Context, owner, repo string) ([]github.Release, error) {
	key := RepoKey{Owner: owner, Repo: repo}

	list, err := s.all.Get(ctx, key, func(ctx context.Context) ([]github.Release, error) {
		var list []github.Release
		err := s.fetch(ctx, key, cacheAll, func(ctx context.Context) error {
			var err error
			list, err = s.source.Releases(ctx, owner, repo)
			return err
		})
		return list, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]github.Release, len(list))
	for i := range list {
		out[i] = *list[i].Clone()
	}
	return out, nil
}

// fetch calls the upstream inside a span and maps its errors onto ErrNotFound and ErrUpstreamUnavailable.
func (s *cachedService) fetch(ctx context.Context, key RepoKey, operation string, call func(context.Context) error) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "releases.fetch",
		trace.WithAttributes(
			otel.AttrRepoOwner.String(key.Owner),
			otel.AttrRepoName.String(key.Repo),
			attribute.String("operation", operation),
		),
	)
	defer span.End()

	start := time.Now()
	err := call(ctx)
	s.metrics.RecordRequest(ctx, operation, time.Since(start), err == nil)

	switch {
	case err == nil:
		slog.DebugContext(ctx, "Fetched releases from upstream", "repository", key.String(), "operation", operation)
		return nil
	case errors.Is(err, github.ErrNotFound):
		return fmt.Errorf("%w: %s: %w", ErrNotFound, key, err)
	case ctx.Err() != nil:
		// The caller went away; an upstream timeout is still UpstreamUnavailable.
		return err
	default:
		otel.RecordError(span, err)
		slog.WarnContext(ctx, "Upstream release API failed", "repository", key.String(), "operation", operation, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, key, err)
	}
}
