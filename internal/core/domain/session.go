package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session constraints.
const (
	MaxRemoteAddrLength     = 45 // IPv6 max length
	MaxUserAgentLength      = 512
	MaxAttributeKeyLength   = 64
	MaxAttributeValueLength = 1024
	MaxAttributesTotalSize  = 4096

	// SessionIDPrefix is the prefix for session IDs.
	SessionIDPrefix = "sgss-"

	// sessionIDLength is len(SessionIDPrefix) plus a 26 character ULID.
	sessionIDLength = 31
)

// Session is an HTTP session owned by one application context.
type Session struct {
	// ID is the session identifier sent to clients in the session cookie.
	// Format: sgss-{ulid_lowercase}.
	ID string `json:"id"`

	// RemoteAddr is the client address at creation (immutable).
	RemoteAddr string `json:"remote_addr"`

	// UserAgent is the client user agent at creation (immutable).
	UserAgent string `json:"user_agent"`

	// CreatedAt is the creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at"`

	// LastActive is the last access timestamp (Unix milliseconds).
	LastActive int64 `json:"last_active"`

	// MaxInactive is the idle timeout in milliseconds. Zero or negative
	// means the session never expires on its own.
	MaxInactive int64 `json:"max_inactive"`

	// Attributes holds application data bound to the session.
	Attributes map[string]string `json:"attributes,omitempty"`

	// Version is incremented on every stored update.
	Version uint64 `json:"version"`
}

// NewSession creates a session with a fresh ID and the given idle timeout.
func NewSession(maxInactive time.Duration) (*Session, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	return &Session{
		ID:          id,
		CreatedAt:   now,
		LastActive:  now,
		MaxInactive: maxInactive.Milliseconds(),
		Attributes:  make(map[string]string),
		Version:     1,
	}, nil
}

// GenerateSessionID returns a new ULID based session ID.
func GenerateSessionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return SessionIDPrefix + strings.ToLower(id.String()), nil
}

// IsExpired reports whether the session has been idle longer than MaxInactive.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the session is expired at the given instant.
func (s *Session) IsExpiredAt(now time.Time) bool {
	if s.MaxInactive <= 0 {
		return false
	}
	return now.UnixMilli()-s.LastActive > s.MaxInactive
}

// Touch records an access.
func (s *Session) Touch() {
	s.LastActive = time.Now().UnixMilli()
}

// IdleTime returns how long the session has been idle.
func (s *Session) IdleTime() time.Duration {
	return time.Duration(time.Now().UnixMilli()-s.LastActive) * time.Millisecond
}

// Validate checks the session against its field constraints.
func (s *Session) Validate() error {
	var violations []string

	if !IsValidSessionID(s.ID) {
		violations = append(violations, "id is malformed")
	}
	if len(s.RemoteAddr) > MaxRemoteAddrLength {
		violations = append(violations, "remote_addr exceeds 45 characters")
	}
	if len(s.UserAgent) > MaxUserAgentLength {
		violations = append(violations, "user_agent exceeds 512 characters")
	}

	total := 0
	for k, v := range s.Attributes {
		if len(k) > MaxAttributeKeyLength {
			violations = append(violations, "attribute key exceeds 64 characters")
			break
		}
		if len(v) > MaxAttributeValueLength {
			violations = append(violations, "attribute value exceeds 1KB")
			break
		}
		total += len(k) + len(v)
	}
	if total > MaxAttributesTotalSize {
		violations = append(violations, "attributes total size exceeds 4KB")
	}

	if len(violations) > 0 {
		return ErrSessionValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Clone returns a deep copy of the session. The copy always has a non-nil
// Attributes map.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Attributes = make(map[string]string, len(s.Attributes))
	for k, v := range s.Attributes {
		clone.Attributes[k] = v
	}
	return &clone
}

// CreatedAtTime returns CreatedAt as time.Time.
func (s *Session) CreatedAtTime() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// LastActiveTime returns LastActive as time.Time.
func (s *Session) LastActiveTime() time.Time {
	return time.UnixMilli(s.LastActive)
}

// IsValidSessionID reports whether id has the sgss-{ulid} shape.
func IsValidSessionID(id string) bool {
	id = strings.ToLower(id)
	if len(id) != sessionIDLength || !strings.HasPrefix(id, SessionIDPrefix) {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(SessionIDPrefix):]))
	return err == nil
}

// NormalizeSessionID lowercases id, returning "" if it is not a valid ID.
func NormalizeSessionID(id string) string {
	normalized := strings.ToLower(id)
	if !IsValidSessionID(normalized) {
		return ""
	}
	return normalized
}
