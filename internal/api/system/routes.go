package system

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/vicius-manifest-server/internal/api/common"
	"github.com/stacklok/vicius-manifest-server/internal/service"
	"github.com/stacklok/vicius-manifest-server/internal/versions"
)

// Register adds the system endpoints to an existing router
func Register(r chi.Router, svc service.ManifestService) {
	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)
	r.Get("/products", productsHandler(svc))
}

// healthHandler handles health check requests
//
// @Summary		Health check
// @Description	Check if the manifest API is healthy
// @Tags			system
// @Produce		json
// @Success		200	{object}	HealthResponse
// @Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler handles readiness check requests
//
// @Summary		Readiness check
// @Description	Check if the manifest API is ready to serve requests
// @Tags			system
// @Produce		json
// @Success		200	{object}	ReadinessResponse
// @Failure		503	{object}	ErrorResponse
// @Router			/readiness [get]
func readinessHandler(svc service.ManifestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			common.WriteErrorResponse(w, "ManifestService not ready: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles version information requests
//
// @Summary		Version information
// @Description	Get version information about the manifest API
// @Tags			system
// @Produce		json
// @Success		200	{object}	versions.VersionInfo
// @Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}

// productsHandler lists the served manifest endpoints
//
// @Summary		List products
// @Tags			system
// @Produce		json
// @Success		200	{array}	ProductResponse
// @Router			/products [get]
func productsHandler(svc service.ManifestService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products := svc.ListProducts(r.Context())
		out := make([]ProductResponse, len(products))
		for i, p := range products {
			out[i] = ProductResponse(p)
		}
		common.WriteJSONResponse(w, out, http.StatusOK)
	}
}
