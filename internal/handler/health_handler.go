package handler

import (
	"net/http"
	"time"

	"chonta-api/internal/container"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	container *container.Container
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(container *container.Container) *HealthHandler {
	return &HealthHandler{
		container: container,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "chonta-api",
	})
}

// Ready handles GET /health/ready and reports dependency status.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{}
	status := http.StatusOK

	if rc := h.container.GetRedisClient(); rc != nil {
		if err := rc.Health(ctx); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.container.HasDatabase() {
		if err := h.container.DB.Health(ctx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "fixtures"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, HealthResponse{
		Status:    state,
		Timestamp: time.Now().UTC(),
		Version:   "1.0.0",
		Service:   "chonta-api",
		Checks:    checks,
	})
}
