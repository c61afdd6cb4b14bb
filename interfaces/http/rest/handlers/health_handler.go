package handlers

import (
	"context"
	"net/http"

	"friendship-backend/pkg/errors"

	"go.uber.org/zap"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	store        Pinger
	errorHandler *errors.ErrorHandler
	logger       *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, errorHandler *errors.ErrorHandler, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{store: store, errorHandler: errorHandler, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready. The store must answer a ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.errorHandler.Handle(w, r, errors.NewUnavailableError("store").WithCause(err))
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]string{"status": "ready"})
}
