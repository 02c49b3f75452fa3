package service

import (
	"context"

	"github.com/stacklok/vicius-manifest-server/internal/manifest"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks -source=provider.go ManifestProvider

// ManifestProvider produces the manifest of a single product.
type ManifestProvider interface {
	// GetManifest builds or returns the product manifest for a request.
	GetManifest(ctx context.Context, info RequestInfo) (*manifest.Manifest, error)

	// GetSource returns a descriptive string about where the manifest comes from.
	// Examples: "github:nefarius/HidHide (latest)", "file:/etc/vicius/emergency.json"
	GetSource() string
}
