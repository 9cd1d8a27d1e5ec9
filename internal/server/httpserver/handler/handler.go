package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/yndnr/sessgauge/internal/core/domain"
	"github.com/yndnr/sessgauge/internal/server/container"
	"github.com/yndnr/sessgauge/internal/telemetry/logger"
	"github.com/yndnr/sessgauge/internal/telemetry/metric"
)

// Config wires the handler to the running server.
type Config struct {
	// Server is the embedded server; its host children are reported by the
	// stats view and readiness follows Host() != nil.
	Server container.Root

	// Sources feed the readings of the stats view.
	Sources []metric.Source

	Logger *slog.Logger
}

// Handler serves the server-level endpoints.
type Handler struct {
	server  container.Root
	sources []metric.Source
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Handler.
func New(cfg Config) *Handler {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}
	h := &Handler{
		server:  cfg.Server,
		sources: cfg.Sources,
		logger:  l,
		mux:     http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /admin/v1/sessions/stats", h.handleSessionStats)
}

func writeJSON(w http.ResponseWriter, r *http.Request, l *slog.Logger, status int, data any) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		l.Error("failed to encode response", "error", err)
	}
}

// WriteError writes an error envelope with the X-Error-Code header.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := logger.RequestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, nil))
}

// writeServiceError converts manager errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if code := domain.GetErrorCode(err); code != "" {
		WriteError(w, r, ErrorCodeToHTTPStatus(code), code, err.Error())
		return
	}
	logger.L(r.Context()).Error("internal error", "error", err)
	WriteError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, "internal server error")
}

// ErrorCodeToHTTPStatus maps an error code to its HTTP status.
// The last four digits of a code carry the status, with 1xxx argument
// codes mapping to 400.
func ErrorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"), strings.HasSuffix(code, "-4041"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasSuffix(code, "-4000"), strings.HasSuffix(code, "-4001"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "SG-ARG-"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ClientIP extracts the client address from forwarding headers or RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
