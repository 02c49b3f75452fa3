package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/stacklok/vicius-manifest-server/internal/manifest"
)

// FileManifestProvider serves a manifest read from a local file.
// The file is read and validated once; comments and trailing commas are allowed.
type FileManifestProvider struct {
	path     string
	manifest *manifest.Manifest
}

var _ ManifestProvider = (*FileManifestProvider)(nil)

// NewFileManifestProvider loads and validates the manifest at path
func NewFileManifestProvider(path string) (*FileManifestProvider, error) {
	m, err := LoadManifestFile(path)
	if err != nil {
		return nil, err
	}
	return &FileManifestProvider{path: path, manifest: m}, nil
}

// LoadManifestFile reads a manifest document that may contain comments and
// trailing commas, then checks it against the structural rules and the schema.
func LoadManifestFile(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file %s: %w", path, err)
	}

	data, err = hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest file %s: %w", path, err)
	}

	m, err := manifest.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("manifest file %s: %w", path, err)
	}
	return m, nil
}

// GetManifest implements ManifestProvider.GetManifest
func (p *FileManifestProvider) GetManifest(context.Context, RequestInfo) (*manifest.Manifest, error) {
	return p.manifest, nil
}

// GetSource implements ManifestProvider.GetSource
func (p *FileManifestProvider) GetSource() string {
	return fmt.Sprintf("file:%s", p.path)
}
