package handler

import (
	"net/http"

	"github.com/yndnr/sessgauge/internal/server/container"
	"github.com/yndnr/sessgauge/internal/telemetry/metric"
)

// handleSessionStats handles GET /admin/v1/sessions/stats.
func (h *Handler) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Readings: metric.Snapshot(h.sources...),
		Contexts: []ContextStats{},
	}

	if h.server != nil {
		if host := h.server.Host(); host != nil {
			resp.Started = true
			for _, child := range host.Children() {
				d, ok := child.(container.Deployable)
				if !ok {
					continue
				}
				resp.Contexts = append(resp.Contexts, contextStats(d))
			}
		}
	}

	writeJSON(w, r, h.logger, http.StatusOK, resp)
}

// Optional manager counters shown in the stats view.
type (
	expiryCounter interface {
		ExpiredSessions() int64
	}
	rejectionCounter interface {
		RejectedSessions() int64
	}
)

func contextStats(d container.Deployable) ContextStats {
	st := ContextStats{Path: d.Name()}
	m := d.SessionManager()
	if m == nil {
		return st
	}
	st.ActiveSessions = m.ActiveSessions()
	if l, ok := m.(container.SessionLimiter); ok {
		limit := l.MaxActiveSessions()
		st.MaxSessions = &limit
	}
	if e, ok := m.(expiryCounter); ok {
		n := e.ExpiredSessions()
		st.ExpiredSessions = &n
	}
	if r, ok := m.(rejectionCounter); ok {
		n := r.RejectedSessions()
		st.RejectedSessions = &n
	}
	return st
}
