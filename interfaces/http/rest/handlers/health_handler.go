package handlers

import (
	"context"
	"net/http"
	"time"

	"matflow/application/ports"
	"matflow/pkg/common"

	"go.uber.org/zap"
)

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	store  ports.HealthChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store ports.HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, common.Envelope{"status": "healthy"})
}

// Ready handles GET /ready. It fails with 503 while the store is unreachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		common.RespondJSON(w, http.StatusServiceUnavailable, common.Envelope{"status": "unavailable"})
		return
	}
	common.RespondJSON(w, http.StatusOK, common.Envelope{"status": "ready"})
}
