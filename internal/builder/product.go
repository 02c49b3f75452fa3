package builder

import (
	"fmt"
	"path"

	"github.com/stacklok/vicius-manifest-server/internal/manifest"
)

// AssetMatch selects how a release asset is chosen for download
type AssetMatch string

const (
	// AssetMatchFirst picks the first asset that passes the pattern filter
	AssetMatchFirst AssetMatch = "first"
	// AssetMatchArchitecture picks the first asset whose name contains the requested architecture
	AssetMatchArchitecture AssetMatch = "architecture"
)

// IsValid reports whether m is a known asset match mode. Empty means AssetMatchFirst.
func (m AssetMatch) IsValid() bool {
	switch m {
	case "", AssetMatchFirst, AssetMatchArchitecture:
		return true
	}
	return false
}

// AssetSelector chooses the downloadable asset of a release
type AssetSelector struct {
	Match AssetMatch
	// Pattern is an optional path.Match glob that asset names must satisfy
	Pattern string
}

// Validate checks the match mode and the glob syntax
func (s AssetSelector) Validate() error {
	if !s.Match.IsValid() {
		return fmt.Errorf("unknown asset match %q", s.Match)
	}
	if s.Pattern != "" {
		if _, err := path.Match(s.Pattern, ""); err != nil {
			return fmt.Errorf("invalid asset pattern %q: %w", s.Pattern, err)
		}
	}
	return nil
}

// ReleaseDefaults are copied onto every release the builder produces
type ReleaseDefaults struct {
	LaunchArguments string
	// ExitCode defaults to manifest.DefaultExitCodePolicy when nil
	ExitCode            *manifest.ExitCodePolicy
	IncludeDownloadSize bool

	ZipExtractDefaultFileDisposition   manifest.ZipExtractDisposition
	ZipExtractFileDispositionOverrides map[string]manifest.ZipExtractDisposition
}

// Product describes how releases of one repository become a manifest
type Product struct {
	Name string
	// TagPrefix is stripped from release tags; empty means manifest.DefaultTagPrefix
	TagPrefix string
	Asset     AssetSelector
	Instance  *manifest.InstanceConfig
	Shared    *manifest.SharedConfig
	Release   ReleaseDefaults
}

func (p *Product) tagPrefix() string {
	if p.TagPrefix == "" {
		return manifest.DefaultTagPrefix
	}
	return p.TagPrefix
}

// Request carries the per-request inputs of a build
type Request struct {
	// Architecture is the X-Vicius-OS-Architecture header value, e.g. x64, arm64 or x86
	Architecture string
}
