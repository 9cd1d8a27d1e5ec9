package domain

import (
	"errors"
	"fmt"
)

// DomainError is a business error with a stable code.
// Codes follow SG-{AREA}-{NNNN}; the last four digits mirror the HTTP status.
type DomainError struct {
	Code    string
	Message string
	Details string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a DomainError.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, Cause: e.Cause}
}

// WithCause returns a copy of e wrapping cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, Cause: cause}
}

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return code == "" || de.Code == code
}

// GetErrorCode returns the code of a DomainError, or "".
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Session errors.
var (
	ErrSessionNotFound       = NewDomainError("SG-SESS-4040", "session not found")
	ErrSessionExpired        = NewDomainError("SG-SESS-4041", "session expired")
	ErrSessionConflict       = NewDomainError("SG-SESS-4090", "session id conflict")
	ErrSessionValidation     = NewDomainError("SG-SESS-4001", "session validation failed")
	ErrTooManyActiveSessions = NewDomainError("SG-SESS-5030", "too many active sessions")
)

// System errors.
var (
	ErrInternalServer = NewDomainError("SG-SYS-5000", "internal server error")
	ErrStorageError   = NewDomainError("SG-SYS-5001", "storage error")
	ErrBadRequest     = NewDomainError("SG-SYS-4000", "bad request")
	ErrRateLimited    = NewDomainError("SG-SYS-4290", "too many requests")
	ErrNotFound       = NewDomainError("SG-SYS-4040", "not found")

	ErrServiceUnavailable = NewDomainError("SG-SYS-5030", "service unavailable")
)

// Argument errors.
var (
	ErrInvalidArgument = NewDomainError("SG-ARG-1001", "invalid argument")
)
