package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// healthTimeout bounds the store ping behind GET /health.
const healthTimeout = 2 * time.Second

// Pinger is implemented by dependencies the health check probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the document store is reachable.
type HealthHandler struct {
	store  Pinger
	logger zerolog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store Pinger, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger.With().Str("handler", "health").Logger(),
	}
}

func (h *HealthHandler) log(r *http.Request) zerolog.Logger {
	return requestLogger(r, h.logger, "health")
}

// Check handles GET /health requests.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger := h.log(r)
		logger.Error().Err(err).Msg("store health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
