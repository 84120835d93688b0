package api

import (
	"context"
	"net/http"
	"time"
)

// Checker is a health check for one external dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// healthCheckTimeout bounds each dependency probe.
const healthCheckTimeout = 2 * time.Second

// HealthHandlers holds the dependency checkers for health endpoints.
type HealthHandlers struct {
	checkers map[string]Checker
}

// NewHealthHandlers creates health handlers. The checkers map is keyed
// by dependency name (e.g. "database", "redis"); a nil map is valid and
// makes readiness trivially pass.
func NewHealthHandlers(checkers map[string]Checker) *HealthHandlers {
	return &HealthHandlers{
		checkers: checkers,
	}
}

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Liveness handles GET /health - process liveness only, no dependency probes.
func (h *HealthHandlers) Liveness(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// Readiness handles GET /ready - probes every dependency and returns 503
// when any is unreachable.
func (h *HealthHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string, len(h.checkers))
	healthy := true

	for name, checker := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()

		if err != nil {
			deps[name] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			deps[name] = "healthy"
		}
	}

	status := http.StatusOK
	resp := HealthResponse{Status: "ready", Dependencies: deps}
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "not ready"
	}
	WriteJSON(w, status, resp)
}
