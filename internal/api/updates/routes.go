// Package updates serves update manifests and the manifest schema.
package updates

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"sigs.k8s.io/yaml"

	"github.com/stacklok/vicius-manifest-server/internal/api/common"
	"github.com/stacklok/vicius-manifest-server/internal/manifest"
	"github.com/stacklok/vicius-manifest-server/internal/releases"
	"github.com/stacklok/vicius-manifest-server/internal/service"
	"github.com/stacklok/vicius-manifest-server/internal/telemetry"
)

const (
	// SchemaJSONPath serves the manifest JSON schema
	SchemaJSONPath = "/api/example/schema/updates.json"
	// SchemaYAMLPath serves the manifest JSON schema rendered as YAML
	SchemaYAMLPath = "/api/example/schema/updates.yaml"
)

// Routes serves the manifest of every configured product
type Routes struct {
	service    service.ManifestService
	schemaYAML []byte
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.ManifestService) *Routes {
	schemaYAML, err := yaml.JSONToYAML(manifest.Schema())
	if err != nil {
		slog.Error("Failed to convert manifest schema to YAML", "error", err)
	}
	return &Routes{service: svc, schemaYAML: schemaYAML}
}

// Register adds one route per configured product plus the schema routes to r.
// Products are read once; the product table does not change at runtime.
func (rt *Routes) Register(ctx context.Context, r chi.Router) {
	r.Get(SchemaJSONPath, rt.serveSchemaJSON)
	r.Get(SchemaYAMLPath, rt.serveSchemaYAML)

	for _, p := range rt.service.ListProducts(ctx) {
		r.Get(p.Path, rt.serveManifest(p.Path))
	}
}

// serveManifest handles GET <product path>
//
// @Summary		Get update manifest
// @Description	Returns the update manifest of a product. Architecture-aware products pick the asset matching the header.
// @Tags			updates
// @Produce		json
// @Param			X-Vicius-OS-Architecture	header	string	false	"Client OS architecture"	Enums(x64,arm64,x86)
// @Success		200	{object}	manifest.Manifest
// @Failure		404	"No matching release"
// @Failure		500	{object}	system.ErrorResponse
// @Failure		502	{object}	system.ErrorResponse
func (rt *Routes) serveManifest(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := service.RequestInfo{Architecture: r.Header.Get(telemetry.ArchitectureHeader)}

		m, err := rt.service.GetManifest(r.Context(), path, info)
		if err != nil {
			writeError(w, r, path, err)
			return
		}

		data, err := manifest.Encode(m)
		if err != nil {
			writeError(w, r, path, err)
			return
		}

		common.WriteRawJSON(w, data, http.StatusOK)
	}
}

// writeError maps service errors onto HTTP responses. Not found has no body.
func writeError(w http.ResponseWriter, r *http.Request, path string, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, service.ErrNotFound):
		slog.DebugContext(ctx, "No manifest to offer", "path", path, "error", err)
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, releases.ErrUpstreamUnavailable):
		slog.WarnContext(ctx, "Upstream unavailable while building manifest", "path", path, "error", err)
		common.WriteErrorResponse(w, "upstream release API unavailable", http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		slog.WarnContext(ctx, "Timed out building manifest", "path", path, "error", err)
		common.WriteErrorResponse(w, "timed out building manifest", http.StatusGatewayTimeout)
	case errors.Is(err, manifest.ErrValidation):
		slog.ErrorContext(ctx, "Refusing to serve invalid manifest", "path", path, "error", err)
		common.WriteErrorResponse(w, "manifest failed validation", http.StatusInternalServerError)
	default:
		slog.ErrorContext(ctx, "Failed to build manifest", "path", path, "error", err)
		common.WriteErrorResponse(w, "failed to build manifest", http.StatusInternalServerError)
	}
}

// serveSchemaJSON serves the manifest JSON schema
//
// @Summary		Get manifest schema
// @Tags			updates
// @Produce		json
// @Success		200	{object}	map[string]any
// @Router			/api/example/schema/updates.json [get]
func (*Routes) serveSchemaJSON(w http.ResponseWriter, _ *http.Request) {
	common.WriteRawJSON(w, manifest.Schema(), http.StatusOK)
}

// serveSchemaYAML serves the manifest JSON schema in YAML format
//
// @Summary		Get manifest schema as YAML
// @Tags			updates
// @Produce		application/x-yaml
// @Success		200	{string}	string	"Manifest schema in YAML format"
// @Router			/api/example/schema/updates.yaml [get]
func (rt *Routes) serveSchemaYAML(w http.ResponseWriter, _ *http.Request) {
	if len(rt.schemaYAML) == 0 {
		http.Error(w, "Manifest schema not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rt.schemaYAML)
}
