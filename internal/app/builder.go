package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/vicius-manifest-server/internal/api"
	"github.com/stacklok/vicius-manifest-server/internal/builder"
	"github.com/stacklok/vicius-manifest-server/internal/config"
	"github.com/stacklok/vicius-manifest-server/internal/github"
	"github.com/stacklok/vicius-manifest-server/internal/releases"
	"github.com/stacklok/vicius-manifest-server/internal/service"
	"github.com/stacklok/vicius-manifest-server/internal/service/inmemory"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 30 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 35 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	tracerName = "github.com/stacklok/vicius-manifest-server"
)

// ManifestAppOptions is a function that configures the manifest app builder
type ManifestAppOptions func(*manifestAppConfig) error

// manifestAppConfig collects everything needed to build a ManifestApp.
// Component overrides exist primarily for testing.
type manifestAppConfig struct {
	config *config.Config

	// Optional component overrides
	releaseSource   releases.Source
	providerFactory service.ManifestProviderFactory
	telemetry       *telemetry.Telemetry
	bypassCache     bool
	githubToken     string

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...ManifestAppOptions) (*manifestAppConfig, error) {
	cfg := &manifestAppConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return cfg, nil
}

// NewManifestApp wires configuration, telemetry, the release cache, the manifest
// builder and the HTTP server. Static manifests are loaded here so that a broken
// file stops the server from starting.
func NewManifestApp(
	ctx context.Context,
	opts ...ManifestAppOptions,
) (*ManifestApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	ownsTelemetry := cfg.telemetry == nil
	if ownsTelemetry {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded && ownsTelemetry {
			_ = cfg.telemetry.Shutdown(context.Background())
		}
	}()

	releaseService, err := buildReleaseService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build release service: %w", err)
	}

	manifestService, err := buildServiceComponents(cfg, releaseService)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	httpServer, err := buildHTTPServer(appCtx, cfg, manifestService)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false

	return &ManifestApp{
		config: cfg.config,
		components: &AppComponents{
			Telemetry:       cfg.telemetry,
			Releases:        releaseService,
			ManifestService: manifestService,
		},
		httpServer: httpServer,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host := parts[0]
		port := parts[1]

		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithBypassCache sends every manifest request upstream, overriding cache.bypass
func WithBypassCache(bypass bool) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.bypassCache = bypass
		return nil
	}
}

// WithGitHubToken sets the upstream token used when no token file is configured.
// GITHUB_TOKEN is consulted when it is empty.
func WithGitHubToken(token string) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.githubToken = token
		return nil
	}
}

// WithReleaseSource allows injecting a custom upstream release source (for testing)
func WithReleaseSource(s releases.Source) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.releaseSource = s
		return nil
	}
}

// WithProviderFactory allows injecting a custom manifest provider factory (for testing)
func WithProviderFactory(f service.ManifestProviderFactory) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.providerFactory = f
		return nil
	}
}

// WithTelemetry uses an existing telemetry instance. The caller keeps ownership of it.
func WithTelemetry(t *telemetry.Telemetry) ManifestAppOptions {
	return func(cfg *manifestAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildReleaseService builds the GitHub client and the caching release service in front of it
func buildReleaseService(b *manifestAppConfig) (releases.Service, error) {
	slog.Info("Initializing release service")

	if b.releaseSource == nil {
		upstream := b.config.Upstream
		token, err := upstream.GetToken(b.githubToken)
		if err != nil {
			return nil, err
		}
		maxTries, initialInterval := upstream.GetRetry()

		b.releaseSource = github.NewClient(
			github.WithBaseURL(upstream.GetBaseURL()),
			github.WithToken(token),
			github.WithTimeout(upstream.GetTimeout()),
			github.WithRetry(maxTries, initialInterval),
		)
		slog.Info("GitHub client configured",
			"base_url", upstream.GetBaseURL(),
			"authenticated", token != "",
		)
	}

	cacheMetrics, err := telemetry.NewCacheMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create cache metrics: %w", err)
	}
	upstreamMetrics, err := telemetry.NewUpstreamMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream metrics: %w", err)
	}

	bypass := b.bypassCache || b.config.Cache.GetBypass()
	if bypass {
		slog.Warn("Release cache is bypassed, every request goes upstream")
	}

	return releases.NewService(b.releaseSource,
		releases.WithTTL(b.config.Cache.GetTTL()),
		releases.WithBypass(bypass),
		releases.WithCacheMetrics(cacheMetrics),
		releases.WithUpstreamMetrics(upstreamMetrics),
		releases.WithTracer(b.telemetry.Tracer(tracerName)),
	), nil
}

// buildServiceComponents builds the manifest builder, the providers and the manifest service
func buildServiceComponents(
	b *manifestAppConfig,
	releaseService releases.Service,
) (service.ManifestService, error) {
	slog.Info("Initializing service components")

	if b.providerFactory == nil {
		manifestMetrics, err := telemetry.NewManifestMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create manifest metrics: %w", err)
		}

		manifestBuilder := builder.New(releaseService,
			builder.WithTracer(b.telemetry.Tracer(tracerName)),
			builder.WithMetrics(manifestMetrics),
		)
		b.providerFactory = service.NewManifestProviderFactory(manifestBuilder)
	}

	svc, err := inmemory.New(b.providerFactory, b.config.Products,
		inmemory.WithTracer(b.telemetry.Tracer(tracerName)),
	)
	if err != nil {
		return nil, err
	}

	slog.Info("Service components initialized successfully", "products", len(b.config.Products))
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	ctx context.Context,
	b *manifestAppConfig,
	svc service.ManifestService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing wrap everything else so rejected requests are counted too.
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	b.middlewares = append([]func(http.Handler) http.Handler{
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
		metricsMiddleware,
	}, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
		api.WithDocsURL(b.config.GetDocsURL()),
	}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	router := api.NewServer(ctx, svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
