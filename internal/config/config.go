// Package config provides configuration loading and management for the manifest server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/vicius-manifest-server/internal/cache"
	"github.com/stacklok/vicius-manifest-server/internal/github"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

const (
	// EnvPrefix is the prefix of environment variables that override flags
	EnvPrefix = "VICIUS"

	// DefaultUpstreamTimeout bounds a single upstream request
	DefaultUpstreamTimeout = 10 * time.Second

	// DefaultRetryMaxTries is the number of attempts per upstream request
	DefaultRetryMaxTries = github.DefaultMaxTries

	// DefaultRetryInitialInterval is the first backoff interval between attempts
	DefaultRetryInitialInterval = github.DefaultInitialInterval
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Server    *ServerConfig     `yaml:"server,omitempty"`
	Upstream  *UpstreamConfig   `yaml:"upstream,omitempty"`
	Cache     *CacheConfig      `yaml:"cache,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
	Products  []ProductConfig   `yaml:"products"`
}

// ServerConfig holds settings of the HTTP surface
type ServerConfig struct {
	// DocsURL is where GET / redirects to. Empty disables the redirect.
	DocsURL string `yaml:"docsUrl,omitempty"`
}

// UpstreamConfig configures access to the release hosting API
type UpstreamConfig struct {
	// BaseURL defaults to the public GitHub API
	BaseURL string `yaml:"baseUrl,omitempty"`

	// Timeout bounds each upstream request (e.g. "10s")
	Timeout string `yaml:"timeout,omitempty"`

	// TokenFile is the path to a file holding a bearer token.
	// The file should contain only the token with optional trailing whitespace.
	TokenFile string `yaml:"tokenFile,omitempty"`

	Retry *RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig configures retries of transient upstream failures
type RetryConfig struct {
	MaxTries        uint   `yaml:"maxTries,omitempty"`
	InitialInterval string `yaml:"initialInterval,omitempty"`
}

// CacheConfig configures the release cache
type CacheConfig struct {
	// TTL is how long releases are served from memory (e.g. "1h")
	TTL string `yaml:"ttl,omitempty"`

	// Bypass sends every request upstream. Development only.
	Bypass bool `yaml:"bypass,omitempty"`
}

// GetToken returns the upstream token using the following priority:
// 1. Read from TokenFile if specified
// 2. explicit, as resolved from the --github-token flag or VICIUS_GITHUB_TOKEN
// 3. GITHUB_TOKEN environment variable
//
// An empty token is valid and means unauthenticated access.
func (u *UpstreamConfig) GetToken(explicit string) (string, error) {
	if u != nil && u.TokenFile != "" {
		data, err := os.ReadFile(filepath.Clean(u.TokenFile))
		if err != nil {
			return "", fmt.Errorf("failed to read token from file %s: %w", u.TokenFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	if tok := strings.TrimSpace(explicit); tok != "" {
		return tok, nil
	}
	return github.TokenFromEnv(), nil
}

// GetBaseURL returns the API base URL, using the public GitHub API if not specified
func (u *UpstreamConfig) GetBaseURL() string {
	if u == nil || u.BaseURL == "" {
		return github.DefaultBaseURL
	}
	return u.BaseURL
}

// GetTimeout returns the per-request timeout
func (u *UpstreamConfig) GetTimeout() time.Duration {
	if u == nil {
		return DefaultUpstreamTimeout
	}
	return durationOr(u.Timeout, DefaultUpstreamTimeout)
}

// GetRetry returns the attempt count and initial backoff interval
func (u *UpstreamConfig) GetRetry() (uint, time.Duration) {
	if u == nil || u.Retry == nil {
		return DefaultRetryMaxTries, DefaultRetryInitialInterval
	}
	maxTries := u.Retry.MaxTries
	if maxTries == 0 {
		maxTries = DefaultRetryMaxTries
	}
	return maxTries, durationOr(u.Retry.InitialInterval, DefaultRetryInitialInterval)
}

// GetTTL returns the cache TTL
func (c *CacheConfig) GetTTL() time.Duration {
	if c == nil {
		return cache.DefaultTTL
	}
	return durationOr(c.TTL, cache.DefaultTTL)
}

// GetBypass reports whether caching is disabled
func (c *CacheConfig) GetBypass() bool {
	return c != nil && c.Bypass
}

// GetDocsURL returns the documentation redirect target, if any
func (c *Config) GetDocsURL() string {
	if c.Server == nil {
		return ""
	}
	return c.Server.DocsURL
}

// LoadConfig loads and parses configuration from a YAML file.
// Relative static manifest paths are resolved against the directory of the file.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	dir := filepath.Dir(loaderCfg.path)
	for i := range config.Products {
		if s := config.Products[i].Static; s != nil && s.Path != "" && !filepath.IsAbs(s.Path) {
			s.Path = filepath.Join(dir, s.Path)
		}
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Server != nil && c.Server.DocsURL != "" {
		if err := validateHTTPURL(c.Server.DocsURL); err != nil {
			errs = append(errs, fmt.Errorf("server.docsUrl: %w", err))
		}
	}
	if err := c.Upstream.validate(); err != nil {
		errs = append(errs, fmt.Errorf("upstream: %w", err))
	}
	if c.Cache != nil && c.Cache.TTL != "" {
		if err := validateDuration(c.Cache.TTL); err != nil {
			errs = append(errs, fmt.Errorf("cache.ttl: %w", err))
		}
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	if len(c.Products) == 0 {
		errs = append(errs, fmt.Errorf("at least one product must be configured"))
	}

	names := make(map[string]bool)
	paths := make(map[string]bool)
	for i := range c.Products {
		p := &c.Products[i]
		prefix := fmt.Sprintf("product[%d] (%s)", i, p.Name)

		if p.Name == "" {
			errs = append(errs, fmt.Errorf("product[%d]: name is required", i))
		} else if names[p.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate product name", prefix))
		}
		names[p.Name] = true

		if path := p.GetPath(); path != "" {
			if paths[path] {
				errs = append(errs, fmt.Errorf("%s: duplicate path '%s'", prefix, path))
			}
			paths[path] = true
		}

		if err := p.validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}

	return errors.Join(errs...)
}

func (u *UpstreamConfig) validate() error {
	if u == nil {
		return nil
	}

	var errs []error
	if u.BaseURL != "" {
		if err := validateHTTPURL(u.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("baseUrl: %w", err))
		}
	}
	if u.Timeout != "" {
		if err := validateDuration(u.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("timeout: %w", err))
		}
	}
	if u.Retry != nil && u.Retry.InitialInterval != "" {
		if err := validateDuration(u.Retry.InitialInterval); err != nil {
			errs = append(errs, fmt.Errorf("retry.initialInterval: %w", err))
		}
	}
	return errors.Join(errs...)
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a valid duration (e.g., '30s', '1h'): %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("must be positive, got %s", s)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

// durationOr parses s, falling back to def when s is empty or invalid.
func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
