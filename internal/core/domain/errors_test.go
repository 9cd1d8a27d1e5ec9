package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{"without details", NewDomainError("SG-TEST-1000", "test message"), "[SG-TEST-1000] test message"},
		{"with details", NewDomainError("SG-TEST-1001", "test message").WithDetails("extra"), "[SG-TEST-1001] test message: extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrStorageError.WithCause(cause)

	if !errors.Is(err, ErrStorageError) {
		t.Error("errors.Is should match by code")
	}
	if errors.Is(err, ErrSessionNotFound) {
		t.Error("errors.Is should not match a different code")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}

	wrapped := fmt.Errorf("create: %w", ErrTooManyActiveSessions)
	if GetErrorCode(wrapped) != "SG-SESS-5030" {
		t.Errorf("GetErrorCode() = %q", GetErrorCode(wrapped))
	}
	if !IsDomainError(wrapped, "") {
		t.Error("IsDomainError with empty code should match")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Error("GetErrorCode on plain error should be empty")
	}
}
