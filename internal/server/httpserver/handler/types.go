package handler

import (
	"time"

	"github.com/yndnr/sessgauge/internal/core/domain"
)

// Response is the standard JSON envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// SessionResponse describes a session to its owner.
type SessionResponse struct {
	SessionID   string            `json:"session_id"`
	Context     string            `json:"context"`
	New         bool              `json:"new"`
	CreatedAt   time.Time         `json:"created_at"`
	LastActive  time.Time         `json:"last_active"`
	MaxInactive int64             `json:"max_inactive_seconds"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

func sessionToResponse(contextPath string, s *domain.Session, created bool) SessionResponse {
	return SessionResponse{
		SessionID:   s.ID,
		Context:     contextPath,
		New:         created,
		CreatedAt:   s.CreatedAtTime().UTC(),
		LastActive:  s.LastActiveTime().UTC(),
		MaxInactive: s.MaxInactive / 1000,
		Attributes:  s.Attributes,
	}
}

// ContextStats is the per-context entry of the stats view.
type ContextStats struct {
	Path           string `json:"path"`
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    *int   `json:"max_sessions,omitempty"`

	// ExpiredSessions counts sessions removed for inactivity since start.
	ExpiredSessions *int64 `json:"expired_sessions,omitempty"`
	// RejectedSessions counts creations refused by the session limit.
	RejectedSessions *int64 `json:"rejected_sessions,omitempty"`
}

// StatsResponse is the body of GET /admin/v1/sessions/stats.
type StatsResponse struct {
	Started  bool               `json:"started"`
	Readings map[string]float64 `json:"readings"`
	Contexts []ContextStats     `json:"contexts"`
}
