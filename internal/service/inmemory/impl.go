// Package inmemory provides an in-memory implementation of the ManifestService interface
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/vicius-manifest-server/internal/config"
	"github.com/stacklok/vicius-manifest-server/internal/manifest"
	"github.com/stacklok/vicius-manifest-server/internal/otel"
	"github.com/stacklok/vicius-manifest-server/internal/service"
)

type product struct {
	info     service.ProductInfo
	provider service.ManifestProvider
}

// manifestSvc implements the ManifestService interface. The product table is
// fixed at construction, so no locking is needed.
type manifestSvc struct {
	products []product
	byPath   map[string]*product
	tracer   trace.Tracer
}

var _ service.ManifestService = (*manifestSvc)(nil)

// Option is a functional option for configuring the manifestSvc
type Option func(*manifestSvc)

// WithTracer sets the tracer used for manifest lookups
func WithTracer(tracer trace.Tracer) Option {
	return func(s *manifestSvc) {
		s.tracer = tracer
	}
}

// New creates a manifest service with one provider per configured product.
// It fails if any provider cannot be created, e.g. when a static manifest is invalid.
func New(
	factory service.ManifestProviderFactory,
	products []config.ProductConfig,
	opts ...Option,
) (service.ManifestService, error) {
	if factory == nil {
		return nil, fmt.Errorf("manifest provider factory is required")
	}

	s := &manifestSvc{
		products: make([]product, 0, len(products)),
		byPath:   make(map[string]*product, len(products)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := range products {
		cfg := &products[i]
		provider, err := factory.CreateProvider(cfg)
		if err != nil {
			return nil, err
		}

		path := normalizePath(cfg.GetPath())
		if _, exists := s.byPath[path]; exists {
			return nil, fmt.Errorf("product %s: path %s is already served", cfg.Name, path)
		}

		s.products = append(s.products, product{
			info: service.ProductInfo{
				Name:   cfg.Name,
				Path:   "/" + path,
				Source: provider.GetSource(),
			},
			provider: provider,
		})
		slog.Info("Registered product", "name", cfg.Name, "path", "/"+path, "source", provider.GetSource())
	}

	for i := range s.products {
		p := &s.products[i]
		s.byPath[normalizePath(p.info.Path)] = p
	}

	return s, nil
}

// CheckReadiness implements ManifestService.CheckReadiness
func (s *manifestSvc) CheckReadiness(context.Context) error {
	if len(s.products) == 0 {
		return service.ErrNoProducts
	}
	return nil
}

// ListProducts implements ManifestService.ListProducts
func (s *manifestSvc) ListProducts(context.Context) []service.ProductInfo {
	out := make([]service.ProductInfo, len(s.products))
	for i, p := range s.products {
		out[i] = p.info
	}
	return out
}

// GetManifest implements ManifestService.GetManifest
func (s *manifestSvc) GetManifest(
	ctx context.Context, path string, info service.RequestInfo,
) (*manifest.Manifest, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "service.GetManifest",
		trace.WithAttributes(otel.AttrProductPath.String(path)),
	)
	defer span.End()

	p, ok := s.byPath[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: no product at %s", service.ErrNotFound, path)
	}
	span.SetAttributes(otel.AttrProductName.String(p.info.Name))

	m, err := p.provider.GetManifest(ctx, info)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			otel.RecordError(span, err)
		}
		return nil, err
	}
	return m, nil
}

func normalizePath(path string) string {
	return strings.Trim(path, "/")
}
