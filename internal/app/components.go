package app

import (
	"github.com/stacklok/vicius-manifest-server/internal/releases"
	"github.com/stacklok/vicius-manifest-server/internal/service"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// Telemetry owns tracer and meter providers
	Telemetry *telemetry.Telemetry

	// Releases is the cached view of upstream releases
	Releases releases.Service

	// ManifestService answers manifest requests for every configured product
	ManifestService service.ManifestService
}
