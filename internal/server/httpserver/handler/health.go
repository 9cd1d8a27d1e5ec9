package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/sessgauge/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.logger, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. The server is ready once it has a host.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.server == nil || h.server.Host() == nil {
		WriteError(w, r, http.StatusServiceUnavailable, domain.ErrServiceUnavailable.Code, "server not started")
		return
	}
	writeJSON(w, r, h.logger, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
