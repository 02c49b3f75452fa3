package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/vicius-manifest-server/internal/builder"
	"github.com/stacklok/vicius-manifest-server/internal/manifest"
)

// GitHubManifestProvider builds manifests from the releases of a GitHub repository
type GitHubManifestProvider struct {
	builder builder.ManifestBuilder
	product *builder.Product
	owner   string
	repo    string
	all     bool
}

var _ ManifestProvider = (*GitHubManifestProvider)(nil)

// NewGitHubManifestProvider returns a provider for owner/repo. When all is
// true every usable release is offered, otherwise only the latest one.
func NewGitHubManifestProvider(
	b builder.ManifestBuilder, owner, repo string, product *builder.Product, all bool,
) *GitHubManifestProvider {
	return &GitHubManifestProvider{
		builder: b,
		product: product,
		owner:   owner,
		repo:    repo,
		all:     all,
	}
}

// GetManifest implements ManifestProvider.GetManifest
func (p *GitHubManifestProvider) GetManifest(ctx context.Context, info RequestInfo) (*manifest.Manifest, error) {
	req := builder.Request{Architecture: info.Architecture}

	var (
		m   *manifest.Manifest
		err error
	)
	if p.all {
		m, err = p.builder.BuildFromAll(ctx, p.owner, p.repo, p.product, req)
	} else {
		m, err = p.builder.BuildFromLatest(ctx, p.owner, p.repo, p.product, req)
	}

	if errors.Is(err, builder.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return m, err
}

// GetSource implements ManifestProvider.GetSource
func (p *GitHubManifestProvider) GetSource() string {
	mode := "latest"
	if p.all {
		mode = "all"
	}
	return fmt.Sprintf("github:%s/%s (%s)", p.owner, p.repo, mode)
}
