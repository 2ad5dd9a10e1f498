package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/yourorg/libralend/internal/security/auth"
)

// HealthResponse is the liveness body, matching the shape the frontends
// already expect.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ReadinessResponse reports per-dependency readiness
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	sessions auth.SessionStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions auth.SessionStore) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: "api"})
}

// Ready handles GET /readyz. The only external dependency is the session
// store, and only when it is backed by Redis.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK
	if err := h.sessions.Ping(ctx); err != nil {
		checks["sessions"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["sessions"] = "ok"
	}

	body := ReadinessResponse{Status: "ready", Checks: checks}
	if status != http.StatusOK {
		body.Status = "not ready"
	}
	writeJSON(w, status, body)
}
