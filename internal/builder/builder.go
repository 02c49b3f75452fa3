// Package builder turns upstream releases into validated update manifests.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/vicius-manifest-server/internal/github"
	"github.com/stacklok/vicius-manifest-server/internal/manifest"
	"github.com/stacklok/vicius-manifest-server/internal/otel"
	"github.com/stacklok/vicius-manifest-server/internal/releases"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

// ErrNotFound is returned when there is nothing to offer: no release, no matching asset or no usable version
var ErrNotFound = errors.New("no matching release")

const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"

	dropReasonDraft     = "draft"
	dropReasonNoAsset   = "no_asset"
	dropReasonBadTag    = "malformed_version"
	dropReasonNoArchHdr = "missing_architecture"
)

// ManifestBuilder builds manifests from repository releases
//
//go:generate mockgen -destination=mocks/mock_builder.go -package=mocks -source=builder.go ManifestBuilder
type ManifestBuilder interface {
	// BuildFromLatest builds a manifest holding only the latest release
	BuildFromLatest(ctx context.Context, owner, repo string, product *Product, req Request) (*manifest.Manifest, error)
	// BuildFromAll builds a manifest holding every usable release in upstream order
	BuildFromAll(ctx context.Context, owner, repo string, product *Product, req Request) (*manifest.Manifest, error)
}

// Builder implements ManifestBuilder on top of a release service
type Builder struct {
	releases releases.Service
	tracer   trace.Tracer
	metrics  *telemetry.ManifestMetrics
}

var _ ManifestBuilder = (*Builder)(nil)

// Option configures a Builder
type Option func(*Builder)

// WithTracer sets the tracer used for build spans
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Builder) {
		b.tracer = tracer
	}
}

// WithMetrics sets the manifest build metrics
func WithMetrics(m *telemetry.ManifestMetrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// New returns a Builder reading releases from svc
func New(svc releases.Service, opts ...Option) *Builder {
	b := &Builder{releases: svc}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildFromLatest implements ManifestBuilder.BuildFromLatest.
// A latest release without a matching asset or with an unparseable tag yields ErrNotFound.
func (b *Builder) BuildFromLatest(
	ctx context.Context, owner, repo string, product *Product, req Request,
) (*manifest.Manifest, error) {
	repository := owner + "/" + repo
	ctx, span := otel.StartSpan(ctx, b.tracer, "builder.BuildFromLatest",
		trace.WithAttributes(
			otel.AttrRepoOwner.String(owner),
			otel.AttrRepoName.String(repo),
			otel.AttrArchitecture.String(req.Architecture),
		),
	)
	defer span.End()

	release, err := b.releases.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return nil, b.fail(ctx, span, repository, err)
	}
	span.SetAttributes(otel.AttrReleaseTag.String(release.TagName))

	mapped, err := mapRelease(release, product, req)
	if err != nil {
		slog.DebugContext(ctx, "Latest release is not usable",
			"repository", repository, "tag", release.TagName, "error", err)
		return nil, b.fail(ctx, span, repository, fmt.Errorf("%w: %s %s: %w", ErrNotFound, repository, release.TagName, err))
	}

	return b.finish(ctx, span, repository, product, []manifest.Release{mapped})
}

// BuildFromAll implements ManifestBuilder.BuildFromAll.
// Drafts, releases without a matching asset and releases with unparseable tags are left out.
func (b *Builder) BuildFromAll(
	ctx context.Context, owner, repo string, product *Product, req Request,
) (*manifest.Manifest, error) {
	repository := owner + "/" + repo
	ctx, span := otel.StartSpan(ctx, b.tracer, "builder.BuildFromAll",
		trace.WithAttributes(
			otel.AttrRepoOwner.String(owner),
			otel.AttrRepoName.String(repo),
			otel.AttrArchitecture.String(req.Architecture),
		),
	)
	defer span.End()

	upstream, err := b.releases.GetAllReleases(ctx, owner, repo)
	if err != nil {
		return nil, b.fail(ctx, span, repository, err)
	}

	out := make([]manifest.Release, 0, len(upstream))
	for i := range upstream {
		release := &upstream[i]
		if release.Draft {
			b.metrics.RecordReleaseDropped(ctx, repository, dropReasonDraft)
			continue
		}

		mapped, err := mapRelease(release, product, req)
		if err != nil {
			slog.WarnContext(ctx, "Dropping release from manifest",
				"repository", repository, "tag", release.TagName, "error", err)
			b.metrics.RecordReleaseDropped(ctx, repository, dropReason(err))
			continue
		}
		out = append(out, mapped)
	}
	span.SetAttributes(otel.AttrReleaseCount.Int(len(out)))

	if len(out) == 0 {
		return nil, b.fail(ctx, span, repository,
			fmt.Errorf("%w: %s has no usable releases out of %d", ErrNotFound, repository, len(upstream)))
	}

	return b.finish(ctx, span, repository, product, out)
}

func (b *Builder) finish(
	ctx context.Context, span trace.Span, repository string, product *Product, list []manifest.Release,
) (*manifest.Manifest, error) {
	m := manifest.New()
	m.Releases = list
	if product.Instance != nil {
		instance := *product.Instance
		m.Instance = &instance
	}
	if product.Shared != nil {
		shared := *product.Shared
		m.Shared = &shared
	}

	if err := m.Validate(); err != nil {
		return nil, b.fail(ctx, span, repository, err)
	}

	b.metrics.RecordBuild(ctx, repository, outcomeOK)
	return m, nil
}

func (b *Builder) fail(ctx context.Context, span trace.Span, repository string, err error) error {
	if errors.Is(err, releases.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if errors.Is(err, ErrNotFound) {
		b.metrics.RecordBuild(ctx, repository, outcomeNotFound)
		return err
	}

	otel.RecordError(span, err)
	b.metrics.RecordBuild(ctx, repository, outcomeError)
	return err
}

// mapRelease converts an upstream release into a manifest release.
func mapRelease(release *github.Release, product *Product, req Request) (manifest.Release, error) {
	version, err := manifest.ParseTag(release.TagName, product.tagPrefix())
	if err != nil {
		return manifest.Release{}, err
	}

	asset, err := selectAsset(release.Assets, product.Asset, req.Architecture)
	if err != nil {
		return manifest.Release{}, err
	}

	defaults := product.Release
	exitCode := manifest.DefaultExitCodePolicy()
	if defaults.ExitCode != nil {
		exitCode = &manifest.ExitCodePolicy{
			SkipCheck:    defaults.ExitCode.SkipCheck,
			SuccessCodes: slices.Clone(defaults.ExitCode.SuccessCodes),
		}
	}

	name := release.Name
	if name == "" {
		name = release.TagName
	}

	out := manifest.Release{
		Name:                               name,
		Version:                            version,
		Summary:                            manifest.StripComments(release.Body),
		PublishedAt:                        release.CreatedAt,
		DownloadURL:                        asset.BrowserDownloadURL,
		LaunchArguments:                    defaults.LaunchArguments,
		ExitCode:                           exitCode,
		ZipExtractDefaultFileDisposition:   defaults.ZipExtractDefaultFileDisposition,
		ZipExtractFileDispositionOverrides: maps.Clone(defaults.ZipExtractFileDispositionOverrides),
	}
	if defaults.IncludeDownloadSize {
		size := asset.Size
		out.DownloadSize = &size
	}
	return out, nil
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, manifest.ErrMalformedVersion):
		return dropReasonBadTag
	case errors.Is(err, errMissingArchitecture):
		return dropReasonNoArchHdr
	default:
		return dropReasonNoAsset
	}
}
