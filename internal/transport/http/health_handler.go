package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"curvepulse/internal/services"
)

// HealthHandler serves the liveness and diagnostics endpoints
type HealthHandler struct {
	service *services.HealthService
	logger  *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// HealthCheck handles GET /api/healthz. With ?detailed=true the response
// includes runtime and cache diagnostics.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("detailed") == "true" {
		render.JSON(w, r, h.service.DetailedHealth(r.Context()))
		return
	}
	render.JSON(w, r, h.service.HealthCheck(r.Context()))
}
