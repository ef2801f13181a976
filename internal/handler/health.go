package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/todo-api/internal/model"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	responder
	pinger Pinger
}

// NewHealthHandler creates a HealthHandler. A nil pinger is always ready.
func NewHealthHandler(pinger Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		responder: responder{logger: logger},
		pinger:    pinger,
	}
}

// RegisterRoutes registers the probe routes with the router.
func (h *HealthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ping", h.Ping).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
}

// Ping handles GET /ping requests.
func (h *HealthHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

// HealthCheck handles GET /health requests.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ReadyCheck handles GET /ready requests.
func (h *HealthHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			h.writeJSON(w, http.StatusServiceUnavailable, model.ReadyResponse{Status: "unavailable"})
			return
		}
	}

	h.writeJSON(w, http.StatusOK, model.ReadyResponse{Status: "ready"})
}
