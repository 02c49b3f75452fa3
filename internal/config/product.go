package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stacklok/vicius-manifest-server/internal/builder"
	"github.com/stacklok/vicius-manifest-server/internal/manifest"
)

const (
	// SourceTypeGitHub builds manifests from GitHub releases
	SourceTypeGitHub = "github"

	// SourceTypeStatic serves a manifest file as is
	SourceTypeStatic = "static"
)

const (
	// ModeLatest offers only the latest release
	ModeLatest = "latest"

	// ModeAll offers every usable release
	ModeAll = "all"
)

// DefaultProductPath is the route of a GitHub product without an explicit path
const DefaultProductPath = "api/{owner}/{repo}/updates.json"

// ProductConfig defines one manifest endpoint
type ProductConfig struct {
	// Name identifies the product in logs, metrics and listings
	Name string `yaml:"name"`

	// Path is the route below the server root, without a leading slash.
	// GitHub products default to DefaultProductPath.
	Path string `yaml:"path,omitempty"`

	// Source-specific configurations (only one should be set)
	GitHub *GitHubSourceConfig `yaml:"github,omitempty"`
	Static *StaticSourceConfig `yaml:"static,omitempty"`

	Instance *InstanceConfig        `yaml:"instance,omitempty"`
	Shared   *SharedConfig          `yaml:"shared,omitempty"`
	Release  *ReleaseDefaultsConfig `yaml:"release,omitempty"`
}

// GitHubSourceConfig defines a product built from the releases of a repository
type GitHubSourceConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// Mode is "latest" (default) or "all"
	Mode string `yaml:"mode,omitempty"`

	// TagPrefix is stripped from release tags before parsing. Defaults to "v".
	TagPrefix string `yaml:"tagPrefix,omitempty"`

	Asset *AssetConfig `yaml:"asset,omitempty"`
}

// AssetConfig chooses the release asset offered for download
type AssetConfig struct {
	// Match is "first" (default) or "architecture"
	Match string `yaml:"match,omitempty"`

	// Pattern is an optional glob asset names must match, e.g. "*.exe"
	Pattern string `yaml:"pattern,omitempty"`
}

// StaticSourceConfig defines a product served from a manifest file.
// The file may contain comments and trailing commas.
type StaticSourceConfig struct {
	Path string `yaml:"path"`
}

// ExitCodeConfig mirrors manifest.ExitCodePolicy
type ExitCodeConfig struct {
	SkipCheck    bool  `yaml:"skipCheck,omitempty"`
	SuccessCodes []int `yaml:"successCodes,omitempty"`
}

// InstanceConfig mirrors manifest.InstanceConfig
type InstanceConfig struct {
	UpdatesDisabled  bool            `yaml:"updatesDisabled,omitempty"`
	LatestVersion    string          `yaml:"latestVersion,omitempty"`
	LatestURL        string          `yaml:"latestUrl,omitempty"`
	EmergencyURL     string          `yaml:"emergencyUrl,omitempty"`
	HelpURL          string          `yaml:"helpUrl,omitempty"`
	ErrorFallbackURL string          `yaml:"errorFallbackUrl,omitempty"`
	ExitCode         *ExitCodeConfig `yaml:"exitCode,omitempty"`
}

// DownloadLocationConfig mirrors manifest.DownloadLocation
type DownloadLocationConfig struct {
	Input string            `yaml:"input"`
	Data  map[string]string `yaml:"data,omitempty"`
}

// SharedConfig mirrors manifest.SharedConfig. Detection is written in its
// wire form, a mapping with a "$type" key naming the strategy.
type SharedConfig struct {
	ProductName          string                  `yaml:"productName,omitempty"`
	WindowTitle          string                  `yaml:"windowTitle,omitempty"`
	RunAsTemporaryCopy   bool                    `yaml:"runAsTemporaryCopy,omitempty"`
	InstallationErrorURL string                  `yaml:"installationErrorUrl,omitempty"`
	DownloadLocation     *DownloadLocationConfig `yaml:"downloadLocation,omitempty"`
	Detection            map[string]any          `yaml:"detection,omitempty"`
}

// ReleaseDefaultsConfig holds values copied onto every generated release
type ReleaseDefaultsConfig struct {
	LaunchArguments     string          `yaml:"launchArguments,omitempty"`
	ExitCode            *ExitCodeConfig `yaml:"exitCode,omitempty"`
	IncludeDownloadSize bool            `yaml:"includeDownloadSize,omitempty"`

	ZipExtractDefaultFileDisposition   string            `yaml:"zipExtractDefaultFileDisposition,omitempty"`
	ZipExtractFileDispositionOverrides map[string]string `yaml:"zipExtractFileDispositionOverrides,omitempty"`
}

// GetType returns the inferred source type based on which field is present
func (p *ProductConfig) GetType() string {
	if p.GitHub != nil {
		return SourceTypeGitHub
	}
	if p.Static != nil {
		return SourceTypeStatic
	}
	return ""
}

// GetPath returns the product route without a leading slash.
// GitHub products without a path get DefaultProductPath filled with owner and repo.
func (p *ProductConfig) GetPath() string {
	path := p.Path
	if path == "" && p.GitHub != nil && p.GitHub.Owner != "" && p.GitHub.Repo != "" {
		path = strings.NewReplacer("{owner}", p.GitHub.Owner, "{repo}", p.GitHub.Repo).Replace(DefaultProductPath)
	}
	return strings.TrimPrefix(path, "/")
}

// GetMode returns the GitHub build mode, defaulting to ModeLatest
func (g *GitHubSourceConfig) GetMode() string {
	if g.Mode == "" {
		return ModeLatest
	}
	return g.Mode
}

func (p *ProductConfig) validate() error {
	var errs []error

	switch {
	case p.GitHub == nil && p.Static == nil:
		errs = append(errs, fmt.Errorf("one of github or static must be specified"))
	case p.GitHub != nil && p.Static != nil:
		errs = append(errs, fmt.Errorf("only one of github or static may be specified"))
	case p.GitHub != nil:
		if err := p.GitHub.validate(); err != nil {
			errs = append(errs, err)
		}
	case p.Static != nil:
		if p.Static.Path == "" {
			errs = append(errs, fmt.Errorf("static.path is required"))
		}
		if p.Path == "" {
			errs = append(errs, fmt.Errorf("path is required for static products"))
		}
		if p.Instance != nil || p.Shared != nil || p.Release != nil {
			errs = append(errs, fmt.Errorf("instance, shared and release apply to github products only"))
		}
	}

	if strings.ContainsAny(p.GetPath(), "{}") {
		errs = append(errs, fmt.Errorf("path must not contain placeholders after expansion: %s", p.Path))
	}

	if p.GitHub != nil {
		if _, err := p.BuilderProduct(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (g *GitHubSourceConfig) validate() error {
	var errs []error
	if g.Owner == "" {
		errs = append(errs, fmt.Errorf("github.owner is required"))
	}
	if g.Repo == "" {
		errs = append(errs, fmt.Errorf("github.repo is required"))
	}
	if mode := g.GetMode(); mode != ModeLatest && mode != ModeAll {
		errs = append(errs, fmt.Errorf("github.mode must be %s or %s, got %s", ModeLatest, ModeAll, mode))
	}
	if g.Asset != nil {
		sel := builder.AssetSelector{Match: builder.AssetMatch(g.Asset.Match), Pattern: g.Asset.Pattern}
		if err := sel.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("github.asset: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BuilderProduct converts a GitHub product into the builder's form. The
// instance and shared sections are checked with the manifest's own rules.
func (p *ProductConfig) BuilderProduct() (*builder.Product, error) {
	if p.GitHub == nil {
		return nil, fmt.Errorf("product %s has no github source", p.Name)
	}

	out := &builder.Product{
		Name:      p.Name,
		TagPrefix: p.GitHub.TagPrefix,
	}
	if p.GitHub.Asset != nil {
		out.Asset = builder.AssetSelector{
			Match:   builder.AssetMatch(p.GitHub.Asset.Match),
			Pattern: p.GitHub.Asset.Pattern,
		}
	}

	var errs []error

	if p.Instance != nil {
		instance, err := p.Instance.toManifest()
		if err != nil {
			errs = append(errs, fmt.Errorf("instance: %w", err))
		}
		out.Instance = instance
	}
	if p.Shared != nil {
		shared, err := p.Shared.toManifest(p.Name)
		if err != nil {
			errs = append(errs, fmt.Errorf("shared: %w", err))
		}
		out.Shared = shared
	}
	if p.Release != nil {
		defaults, err := p.Release.toBuilder()
		if err != nil {
			errs = append(errs, fmt.Errorf("release: %w", err))
		}
		out.Release = defaults
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	probe := &manifest.Manifest{Instance: out.Instance, Shared: out.Shared}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *ExitCodeConfig) toManifest() *manifest.ExitCodePolicy {
	if e == nil {
		return nil
	}
	return &manifest.ExitCodePolicy{SkipCheck: e.SkipCheck, SuccessCodes: e.SuccessCodes}
}

func (c *InstanceConfig) toManifest() (*manifest.InstanceConfig, error) {
	out := &manifest.InstanceConfig{
		UpdatesDisabled:  c.UpdatesDisabled,
		LatestURL:        c.LatestURL,
		EmergencyURL:     c.EmergencyURL,
		HelpURL:          c.HelpURL,
		ErrorFallbackURL: c.ErrorFallbackURL,
		ExitCode:         c.ExitCode.toManifest(),
	}
	if c.LatestVersion != "" {
		v, err := manifest.ParseVersion(c.LatestVersion)
		if err != nil {
			return nil, fmt.Errorf("latestVersion: %w", err)
		}
		out.LatestVersion = &v
	}
	return out, nil
}

func (c *SharedConfig) toManifest(productName string) (*manifest.SharedConfig, error) {
	name := c.ProductName
	if name == "" {
		name = productName
	}

	var detection manifest.Detection
	if c.Detection != nil {
		data, err := json.Marshal(c.Detection)
		if err != nil {
			return nil, fmt.Errorf("detection: %w", err)
		}
		detection, err = manifest.DecodeDetection(data)
		if err != nil {
			return nil, fmt.Errorf("detection: %w", err)
		}
	}

	out := manifest.NewSharedConfig(name, detection)
	out.WindowTitle = c.WindowTitle
	out.RunAsTemporaryCopy = c.RunAsTemporaryCopy
	out.InstallationErrorURL = c.InstallationErrorURL
	if c.DownloadLocation != nil {
		out.DownloadLocation = &manifest.DownloadLocation{
			Input: c.DownloadLocation.Input,
			Data:  manifest.TemplateData(c.DownloadLocation.Data),
		}
	}
	return out, nil
}

func (c *ReleaseDefaultsConfig) toBuilder() (builder.ReleaseDefaults, error) {
	out := builder.ReleaseDefaults{
		LaunchArguments:                  c.LaunchArguments,
		ExitCode:                         c.ExitCode.toManifest(),
		IncludeDownloadSize:              c.IncludeDownloadSize,
		ZipExtractDefaultFileDisposition: manifest.ZipExtractDisposition(c.ZipExtractDefaultFileDisposition),
	}

	var errs []error
	if d := out.ZipExtractDefaultFileDisposition; d != "" && !d.IsValid() {
		errs = append(errs, fmt.Errorf("zipExtractDefaultFileDisposition: unknown disposition %q", d))
	}
	if len(c.ZipExtractFileDispositionOverrides) > 0 {
		out.ZipExtractFileDispositionOverrides = make(map[string]manifest.ZipExtractDisposition, len(c.ZipExtractFileDispositionOverrides))
		for file, raw := range c.ZipExtractFileDispositionOverrides {
			d := manifest.ZipExtractDisposition(raw)
			if !d.IsValid() {
				errs = append(errs, fmt.Errorf("zipExtractFileDispositionOverrides[%s]: unknown disposition %q", file, raw))
			}
			out.ZipExtractFileDispositionOverrides[file] = d
		}
	}
	if err := c.ExitCode.validate(); err != nil {
		errs = append(errs, fmt.Errorf("exitCode: %w", err))
	}
	return out, errors.Join(errs...)
}

func (e *ExitCodeConfig) validate() error {
	if e == nil {
		return nil
	}
	if !e.SkipCheck && len(e.SuccessCodes) == 0 {
		return fmt.Errorf("successCodes must not be empty unless skipCheck is set")
	}
	seen := make(map[int]bool, len(e.SuccessCodes))
	for _, code := range e.SuccessCodes {
		if seen[code] {
			return fmt.Errorf("duplicate success code %d", code)
		}
		seen[code] = true
	}
	return nil
}
