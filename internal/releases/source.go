package releases

import (
	"context"

	"github.com/stacklok/vicius-manifest-server/internal/github"
)

// Source reads releases from the hosting API
//
//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go Source
type Source interface {
	// LatestRelease returns the newest published release
	LatestRelease(ctx context.Context, owner, repo string) (*github.Release, error)
	// Releases returns every release, newest first
	Releases(ctx context.Context, owner, repo string) ([]github.Release, error)
}

var _ Source = (*github.Client)(nil)
