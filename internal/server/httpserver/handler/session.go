package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yndnr/sessgauge/internal/core/domain"
	"github.com/yndnr/sessgauge/internal/core/service"
	"github.com/yndnr/sessgauge/internal/telemetry/logger"
)

// CookieName is the session cookie.
const CookieName = "SGSESSIONID"

type sessionKey struct{}

// WithSession stores the request's session in ctx.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached to the request, or nil.
func SessionFromContext(ctx context.Context) *domain.Session {
	s, _ := ctx.Value(sessionKey{}).(*domain.Session)
	return s
}

// SessionHandler serves the session endpoint of one application context:
//
//	GET    {path}/session  create a session, or touch the current one
//	DELETE {path}/session  invalidate the current session
type SessionHandler struct {
	path    string
	manager service.Manager
	logger  *slog.Logger
	mux     *http.ServeMux
}

// NewSessionHandler creates the handler for the context mounted at path.
func NewSessionHandler(path string, manager service.Manager, l *slog.Logger) *SessionHandler {
	if l == nil {
		l = slog.Default()
	}
	h := &SessionHandler{
		path:    path,
		manager: manager,
		logger:  l.With("context", path),
		mux:     http.NewServeMux(),
	}
	h.mux.HandleFunc("GET "+path+"/session", h.handleGetSession)
	h.mux.HandleFunc("DELETE "+path+"/session", h.handleDeleteSession)
	return h
}

// ServeHTTP implements http.Handler.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *SessionHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if current := SessionFromContext(ctx); current != nil {
		s, err := h.manager.Touch(ctx, current.ID)
		switch {
		case err == nil:
			writeJSON(w, r, h.logger, http.StatusOK, sessionToResponse(h.path, s, false))
			return
		case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrSessionExpired):
			// Gone since the middleware looked it up; start a new one.
		default:
			writeServiceError(w, r, err)
			return
		}
	}

	s, err := h.manager.Create(ctx, &service.CreateSessionRequest{
		RemoteAddr: truncate(ClientIP(r), domain.MaxRemoteAddrLength),
		UserAgent:  truncate(r.UserAgent(), domain.MaxUserAgentLength),
	})
	if err != nil {
		if errors.Is(err, domain.ErrTooManyActiveSessions) {
			logger.L(ctx).Warn("session rejected", "context", h.path, "active", h.manager.ActiveSessions())
		}
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, h.cookie(s.ID, 0))
	writeJSON(w, r, h.logger, http.StatusCreated, sessionToResponse(h.path, s, true))
}

func (h *SessionHandler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	current := SessionFromContext(r.Context())
	if current == nil {
		WriteError(w, r, http.StatusNotFound, domain.ErrSessionNotFound.Code, domain.ErrSessionNotFound.Message)
		return
	}

	if err := h.manager.Invalidate(r.Context(), current.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, h.cookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     h.path,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
