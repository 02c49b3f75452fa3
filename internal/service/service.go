// Package service provides the business logic for the manifest API
package service

import (
	"context"
	"errors"

	"github.com/stacklok/vicius-manifest-server/internal/manifest"
)

var (
	// ErrNotFound is returned when no manifest can be offered for a path
	ErrNotFound = errors.New("manifest not found")
	// ErrNoProducts is returned by CheckReadiness when nothing is configured
	ErrNoProducts = errors.New("no products configured")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ManifestService

// ManifestService defines the interface for manifest operations
type ManifestService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListProducts returns the configured products in configuration order
	ListProducts(ctx context.Context) []ProductInfo

	// GetManifest returns the manifest served at path. The result must be treated as read-only.
	GetManifest(ctx context.Context, path string, info RequestInfo) (*manifest.Manifest, error)
}

// RequestInfo carries request properties that influence the manifest
type RequestInfo struct {
	// Architecture is the client's OS architecture, e.g. x64, arm64 or x86
	Architecture string
}

// ProductInfo describes a configured product
type ProductInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Source string `json:"source"`
}
