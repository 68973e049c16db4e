package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker is implemented by backends that can be pinged
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks  map[string]HealthChecker
	version string
	mode    string
	started time.Time
	timeout time.Duration
}

// NewHealthHandler creates a health handler. Nil checkers are skipped, so
// standalone mode simply reports no backends.
func NewHealthHandler(version, mode string, checks map[string]HealthChecker) *HealthHandler {
	active := make(map[string]HealthChecker, len(checks))
	for name, c := range checks {
		if c != nil {
			active[name] = c
		}
	}
	return &HealthHandler{
		checks:  active,
		version: version,
		mode:    mode,
		started: time.Now(),
		timeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Mode      string            `json:"mode"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

func (h *HealthHandler) response(status string) HealthResponse {
	now := time.Now()
	return HealthResponse{
		Status:    status,
		Version:   h.version,
		Mode:      h.mode,
		Uptime:    now.Sub(h.started).Round(time.Second).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response("healthy"))
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	services := make(map[string]string, len(h.checks))
	ready := true
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			ready = false
			continue
		}
		services[name] = "healthy"
	}

	if ready {
		resp := h.response("ready")
		resp.Services = services
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp := h.response("not ready")
	resp.Services = services
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

// Live handles GET /live
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
