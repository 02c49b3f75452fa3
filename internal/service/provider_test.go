package service_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/vicius-manifest-server/internal/builder"
	buildermocks "github.com/stacklok/vicius-manifest-server/internal/builder/mocks"
	"github.com/stacklok/vicius-manifest-server/internal/config"
	"github.com/stacklok/vicius-manifest-server/internal/manifest"
	"github.com/stacklok/vicius-manifest-server/internal/releases"
	"github.com/stacklok/vicius-manifest-server/internal/service"
)

const emergencyManifest = `{
  // Sent when the product must not update through Vicius any longer.
  "instance": {
    "emergencyUrl": "https://docs.nefarius.at/projects/Vicius/Emergency/",
  },
  "releases": [],
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestGitHubManifestProvider(t *testing.T) {
	t.Parallel()

	product := &builder.Product{Name: "HidHide"}
	built := manifest.New()

	tests := []struct {
		name       string
		all        bool
		buildErr   error
		wantErr    error
		wantSource string
	}{
		{name: "latest", wantSource: "github:nefarius/HidHide (latest)"},
		{name: "all", all: true, wantSource: "github:nefarius/HidHide (all)"},
		{
			name:       "not found becomes service not found",
			buildErr:   fmt.Errorf("%w: no asset", builder.ErrNotFound),
			wantErr:    service.ErrNotFound,
			wantSource: "github:nefarius/HidHide (latest)",
		},
		{
			name:       "upstream failure passes through",
			all:        true,
			buildErr:   fmt.Errorf("%w: timeout", releases.ErrUpstreamUnavailable),
			wantErr:    releases.ErrUpstreamUnavailable,
			wantSource: "github:nefarius/HidHide (all)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			b := buildermocks.NewMockManifestBuilder(ctrl)
			req := builder.Request{Architecture: "x64"}

			var result *manifest.Manifest
			if tt.buildErr == nil {
				result = built
			}
			if tt.all {
				b.EXPECT().BuildFromAll(gomock.Any(), "nefarius", "HidHide", product, req).Return(result, tt.buildErr)
			} else {
				b.EXPECT().BuildFromLatest(gomock.Any(), "nefarius", "HidHide", product, req).Return(result, tt.buildErr)
			}

			p := service.NewGitHubManifestProvider(b, "nefarius", "HidHide", product, tt.all)
			assert.Equal(t, tt.wantSource, p.GetSource())

			m, err := p.GetManifest(context.Background(), service.RequestInfo{Architecture: "x64"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				if errors.Is(tt.wantErr, releases.ErrUpstreamUnavailable) {
					assert.False(t, errors.Is(err, service.ErrNotFound))
				}
				return
			}
			require.NoError(t, err)
			assert.Same(t, built, m)
		})
	}
}

func TestLoadManifestFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		missing bool
		errMsg  string
	}{
		{
			name:    "comments and trailing commas",
			content: emergencyManifest,
		},
		{
			name:    "missing file",
			missing: true,
			errMsg:  "failed to read manifest file",
		},
		{
			name:    "not json",
			content: "releases: []",
			errMsg:  "failed to parse manifest file",
		},
		{
			name:    "unknown field",
			content: `{"releases": [], "channel": "beta"}`,
			errMsg:  "manifest validation failed",
		},
		{
			name: "unknown detection type",
			content: `{"shared": {"productName": "x", "detectionMethod": "Magic",
			  "detection": {"$type": "Magic"}}, "releases": []}`,
			errMsg: "manifest validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "missing.json")
			if !tt.missing {
				path = writeFile(t, "updates.json", tt.content)
			}

			m, err := service.LoadManifestFile(path)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://docs.nefarius.at/projects/Vicius/Emergency/", m.Instance.EmergencyURL)
			assert.Empty(t, m.Releases)
		})
	}
}

func TestFileManifestProvider(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "emergency.json", emergencyManifest)
	p, err := service.NewFileManifestProvider(path)
	require.NoError(t, err)

	assert.Equal(t, "file:"+path, p.GetSource())

	first, err := p.GetManifest(context.Background(), service.RequestInfo{})
	require.NoError(t, err)
	second, err := p.GetManifest(context.Background(), service.RequestInfo{Architecture: "arm64"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManifestProviderFactory(t *testing.T) {
	t.Parallel()

	staticPath := writeFile(t, "emergency.json", emergencyManifest)
	ctrl := gomock.NewController(t)
	factory := service.NewManifestProviderFactory(buildermocks.NewMockManifestBuilder(ctrl))

	tests := []struct {
		name       string
		product    *config.ProductConfig
		wantSource string
		errMsg     string
	}{
		{
			name: "github",
			product: &config.ProductConfig{
				Name:   "HidHide",
				GitHub: &config.GitHubSourceConfig{Owner: "nefarius", Repo: "HidHide", Mode: config.ModeAll},
			},
			wantSource: "github:nefarius/HidHide (all)",
		},
		{
			name: "static",
			product: &config.ProductConfig{
				Name:   "Emergency",
				Path:   "api/example/EmergencyUrl/updates.json",
				Static: &config.StaticSourceConfig{Path: staticPath},
			},
			wantSource: "file:" + staticPath,
		},
		{
			name:   "nil product",
			errMsg: "product config cannot be nil",
		},
		{
			name:    "no source",
			product: &config.ProductConfig{Name: "empty"},
			errMsg:  "unsupported source type",
		},
		{
			name: "missing static file",
			product: &config.ProductConfig{
				Name:   "Broken",
				Path:   "x",
				Static: &config.StaticSourceConfig{Path: filepath.Join(t.TempDir(), "nope.json")},
			},
			errMsg: "product Broken: failed to read manifest file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := factory.CreateProvider(tt.product)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, p.GetSource())
		})
	}
}

func TestManifestProviderFactory_RequiresBuilderForGitHub(t *testing.T) {
	t.Parallel()

	_, err := service.NewManifestProviderFactory(nil).CreateProvider(&config.ProductConfig{
		Name:   "HidHide",
		GitHub: &config.GitHubSourceConfig{Owner: "nefarius", Repo: "HidHide"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest builder is required")
}
