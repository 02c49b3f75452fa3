package service

import (
	"fmt"

	"github.com/stacklok/vicius-manifest-server/internal/builder"
	"github.com/stacklok/vicius-manifest-server/internal/config"
)

//go:generate mockgen -destination=mocks/mock_provider_factory.go -package=mocks -source=provider_factory.go ManifestProviderFactory

// ManifestProviderFactory creates manifest providers based on product configuration
type ManifestProviderFactory interface {
	// CreateProvider creates a manifest provider for the product
	CreateProvider(product *config.ProductConfig) (ManifestProvider, error)
}

// defaultManifestProviderFactory is the default implementation of ManifestProviderFactory
type defaultManifestProviderFactory struct {
	builder builder.ManifestBuilder
}

var _ ManifestProviderFactory = (*defaultManifestProviderFactory)(nil)

// NewManifestProviderFactory creates a new default manifest provider factory
func NewManifestProviderFactory(b builder.ManifestBuilder) ManifestProviderFactory {
	return &defaultManifestProviderFactory{builder: b}
}

// CreateProvider implements ManifestProviderFactory.CreateProvider
func (f *defaultManifestProviderFactory) CreateProvider(product *config.ProductConfig) (ManifestProvider, error) {
	if product == nil {
		return nil, fmt.Errorf("product config cannot be nil")
	}

	switch product.GetType() {
	case config.SourceTypeGitHub:
		if f.builder == nil {
			return nil, fmt.Errorf("product %s: manifest builder is required for github products", product.Name)
		}
		p, err := product.BuilderProduct()
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", product.Name, err)
		}
		all := product.GitHub.GetMode() == config.ModeAll
		return NewGitHubManifestProvider(f.builder, product.GitHub.Owner, product.GitHub.Repo, p, all), nil
	case config.SourceTypeStatic:
		p, err := NewFileManifestProvider(product.Static.Path)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", product.Name, err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("product %s: unsupported source type %q", product.Name, product.GetType())
	}
}
