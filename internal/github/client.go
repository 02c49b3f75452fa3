// Package github fetches releases from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"

	"github.com/stacklok/vicius-manifest-server/internal/httpclient"
)

const (
	// DefaultBaseURL is the public GitHub REST API endpoint
	DefaultBaseURL = "https://api.github.com"

	// DefaultMaxTries bounds the attempts made for one upstream request
	DefaultMaxTries = 3

	// DefaultInitialInterval is the first retry delay
	DefaultInitialInterval = 500 * time.Millisecond

	apiVersion = "2022-11-28"
	perPage    = 100
	maxPages   = 10
)

// ErrNotFound is returned when the repository or its latest release does not exist.
var ErrNotFound = errors.New("github: not found")

// Client reads releases of a repository
type Client struct {
	http            httpclient.Client
	baseURL         string
	maxTries        uint
	initialInterval time.Duration
}

// Option configures a Client
type Option func(*clientConfig)

type clientConfig struct {
	baseURL         string
	token           string
	timeout         time.Duration
	maxTries        uint
	initialInterval time.Duration
	http            httpclient.Client
}

// WithBaseURL points the client at another API endpoint, e.g. GitHub Enterprise or a test server
func WithBaseURL(baseURL string) Option {
	return func(c *clientConfig) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithToken authenticates requests with a bearer token
func WithToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetry configures how often transient failures are retried
func WithRetry(maxTries uint, initialInterval time.Duration) Option {
	return func(c *clientConfig) {
		if maxTries > 0 {
			c.maxTries = maxTries
		}
		if initialInterval > 0 {
			c.initialInterval = initialInterval
		}
	}
}

// WithHTTPClient replaces the transport-level client. Token and timeout options are ignored.
func WithHTTPClient(client httpclient.Client) Option {
	return func(c *clientConfig) {
		c.http = client
	}
}

// NewClient creates a GitHub release client
func NewClient(opts ...Option) *Client {
	cfg := &clientConfig{
		baseURL:         DefaultBaseURL,
		timeout:         httpclient.DefaultTimeout,
		maxTries:        DefaultMaxTries,
		initialInterval: DefaultInitialInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := cfg.http
	if client == nil {
		httpOpts := []httpclient.Option{
			httpclient.WithHeader("Accept", "application/vnd.github+json"),
			httpclient.WithHeader("X-GitHub-Api-Version", apiVersion),
		}
		if cfg.token != "" {
			authed := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: cfg.token,
				TokenType:   "Bearer",
			}))
			authed.Timeout = cfg.timeout
			httpOpts = append(httpOpts, httpclient.WithHTTPClient(authed))
		}
		client = httpclient.NewDefaultClient(cfg.timeout, httpOpts...)
	}

	return &Client{
		http:            client,
		baseURL:         cfg.baseURL,
		maxTries:        cfg.maxTries,
		initialInterval: cfg.initialInterval,
	}
}

// LatestRelease returns the most recent non-draft, non-prerelease release.
// ErrNotFound is returned when the repository has no such release.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	data, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var release Release
	if err := json.Unmarshal(data, &release); err != nil {
		return nil, fmt.Errorf("failed to decode release of %s/%s: %w", owner, repo, err)
	}
	return &release, nil
}

// Releases returns all releases of a repository in the order GitHub lists them (newest first).
func (c *Client) Releases(ctx context.Context, owner, repo string) ([]Release, error) {
	var all []Release
	for page := 1; page <= maxPages; page++ {
		endpoint := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=%d&page=%d",
			c.baseURL, url.PathEscape(owner), url.PathEscape(repo), perPage, page)

		data, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var batch []Release
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to decode releases of %s/%s: %w", owner, repo, err)
		}
		all = append(all, batch...)

		if len(batch) < perPage {
			return all, nil
		}
	}

	slog.WarnContext(ctx, "Release listing truncated",
		"owner", owner, "repo", repo, "pages", maxPages)
	return all, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval

	operation := func() ([]byte, error) {
		data, err := c.http.Get(ctx, endpoint)
		if err == nil {
			return data, nil
		}

		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.StatusCode == http.StatusNotFound {
				return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrNotFound, err))
			}
			if !httpErr.Temporary() {
				return nil, backoff.Permanent(err)
			}
		}
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}

		slog.DebugContext(ctx, "Retrying upstream request", "url", endpoint, "error", err)
		return nil, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
	)
}
