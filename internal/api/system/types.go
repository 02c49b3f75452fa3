// Package system serves health, readiness, version and product listing endpoints.
package system

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error" example:"upstream release API unavailable"`
}

// ProductResponse describes one served manifest endpoint
type ProductResponse struct {
	Name   string `json:"name" example:"HidHide"`
	Path   string `json:"path" example:"/api/nefarius/HidHide/updates.json"`
	Source string `json:"source" example:"github:nefarius/HidHide (latest)"`
}
