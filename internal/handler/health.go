package handler

import (
	"net/http"

	"github.com/eli5-ai/guest-platform/internal/store"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	kv store.KV
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(kv store.KV) *HealthHandler {
	return &HealthHandler{kv: kv}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.kv == nil || h.kv.Ping(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "storage unavailable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
