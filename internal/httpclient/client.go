// Package httpclient provides the HTTP client used to talk to upstream release APIs
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response size (16MB)
	MaxResponseSize = 16 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "vicius-manifest-server/1.0"

	// DefaultAccept is the Accept header sent unless overridden
	DefaultAccept = "application/json"
)

// Client is an interface for HTTP operations
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// Get performs an HTTP GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client  *http.Client
	headers http.Header
	maxSize int64
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithHTTPClient replaces the underlying *http.Client, e.g. with one carrying an auth transport.
// The client's timeout is left as is.
func WithHTTPClient(c *http.Client) Option {
	return func(dc *DefaultClient) {
		if c != nil {
			dc.client = c
		}
	}
}

// WithHeader sets a header sent with every request
func WithHeader(key, value string) Option {
	return func(dc *DefaultClient) {
		dc.headers.Set(key, value)
	}
}

// WithMaxResponseSize overrides MaxResponseSize
func WithMaxResponseSize(n int64) Option {
	return func(dc *DefaultClient) {
		if n > 0 {
			dc.maxSize = n
		}
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	dc := &DefaultClient{
		client:  &http.Client{Timeout: timeout},
		headers: http.Header{},
		maxSize: MaxResponseSize,
	}
	dc.headers.Set("User-Agent", UserAgent)
	dc.headers.Set("Accept", DefaultAccept)

	for _, opt := range opts {
		opt(dc)
	}
	return dc
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, url, resp.Status)
	}

	if resp.ContentLength > c.maxSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, c.maxSize, float64(c.maxSize)/(1024*1024))
	}

	// +1 to detect if the limit was exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			c.maxSize, float64(c.maxSize)/(1024*1024))
	}

	return body, nil
}
