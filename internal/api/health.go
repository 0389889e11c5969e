package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/mischief-wheel/internal/session"
	"github.com/ashureev/mischief-wheel/internal/store"
	"github.com/go-chi/chi/v5"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo store.Repository
	sm   *session.Manager
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, sm *session.Manager) *HealthHandler {
	return &HealthHandler{repo: repo, sm: sm}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status":          "healthy",
		"checks":          checks,
		"active_sessions": h.sm.Count(),
	}
	statusCode := http.StatusOK

	if n, err := h.repo.CountChallenges(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
		status["challenges"] = n
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.Health)
}
