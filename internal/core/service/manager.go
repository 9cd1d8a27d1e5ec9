package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/sessgauge/internal/core/domain"
)

// DefaultMaxInactiveInterval is the idle timeout applied when none is configured.
const DefaultMaxInactiveInterval = 30 * time.Minute

// SessionStore is the storage contract shared by the memory and Badger stores.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Update(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}

// Manager tracks the sessions of one application context.
type Manager interface {
	// Create starts a new session.
	Create(ctx context.Context, req *CreateSessionRequest) (*domain.Session, error)

	// Find returns a live session.
	Find(ctx context.Context, id string) (*domain.Session, error)

	// Touch records an access and returns the updated session.
	Touch(ctx context.Context, id string) (*domain.Session, error)

	// Invalidate ends a session.
	Invalidate(ctx context.Context, id string) error

	// ActiveSessions returns the number of sessions currently held.
	ActiveSessions() int

	// ExpireSessions removes sessions idle past their timeout.
	ExpireSessions(ctx context.Context) (int, error)

	// Close releases the underlying store.
	Close() error
}

// CreateSessionRequest carries the client attributes recorded on a new session.
type CreateSessionRequest struct {
	RemoteAddr string
	UserAgent  string
	Attributes map[string]string
}

// Option configures a manager.
type Option func(*managerBase)

// WithMaxInactiveInterval sets the idle timeout for new sessions.
// Zero or negative disables idle expiry.
func WithMaxInactiveInterval(d time.Duration) Option {
	return func(m *managerBase) {
		m.maxInactive = d
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *managerBase) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// managerBase implements the store-backed session lifecycle shared by all
// manager variants.
type managerBase struct {
	name        string
	store       SessionStore
	maxInactive time.Duration
	logger      *slog.Logger

	// countMu is held shared while a store write and its counter update are
	// in flight, and exclusively while resync replaces the counter.
	countMu sync.RWMutex
	active  atomic.Int64
	expired atomic.Int64
}

func newManagerBase(name string, store SessionStore, opts []Option) *managerBase {
	m := &managerBase{
		name:        name,
		store:       store,
		maxInactive: DefaultMaxInactiveInterval,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("manager", name)
	return m
}

// Name returns the name of the context the manager belongs to.
func (m *managerBase) Name() string {
	return m.name
}

// MaxInactiveInterval returns the idle timeout applied to new sessions.
func (m *managerBase) MaxInactiveInterval() time.Duration {
	return m.maxInactive
}

func (m *managerBase) Create(ctx context.Context, req *CreateSessionRequest) (*domain.Session, error) {
	session, err := domain.NewSession(m.maxInactive)
	if err != nil {
		return nil, err
	}
	if req != nil {
		session.RemoteAddr = req.RemoteAddr
		session.UserAgent = req.UserAgent
		for k, v := range req.Attributes {
			session.Attributes[k] = v
		}
	}

	m.countMu.RLock()
	err = m.store.Create(ctx, session)
	if err == nil {
		m.active.Add(1)
	}
	m.countMu.RUnlock()
	if err != nil {
		return nil, err
	}

	m.logger.Debug("session created", "session_id", session.ID)
	return session, nil
}

func (m *managerBase) Find(ctx context.Context, id string) (*domain.Session, error) {
	normalized := domain.NormalizeSessionID(id)
	if normalized == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := m.store.Get(ctx, normalized)
	if errors.Is(err, domain.ErrSessionExpired) {
		m.expire(ctx, normalized)
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (m *managerBase) Touch(ctx context.Context, id string) (*domain.Session, error) {
	session, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Touch()
	if err := m.store.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *managerBase) Invalidate(ctx context.Context, id string) error {
	normalized := domain.NormalizeSessionID(id)
	if normalized == "" {
		return domain.ErrSessionNotFound
	}
	m.countMu.RLock()
	err := m.store.Delete(ctx, normalized)
	if err == nil {
		m.active.Add(-1)
	}
	m.countMu.RUnlock()
	if err != nil {
		return err
	}

	m.logger.Debug("session invalidated", "session_id", normalized)
	return nil
}

func (m *managerBase) ActiveSessions() int {
	n := m.active.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// ExpiredSessions returns the number of sessions removed for inactivity.
func (m *managerBase) ExpiredSessions() int64 {
	return m.expired.Load()
}

func (m *managerBase) ExpireSessions(ctx context.Context) (int, error) {
	n, err := m.store.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	m.expired.Add(int64(n))
	if err := m.resync(ctx); err != nil {
		return n, err
	}
	if n > 0 {
		m.logger.Debug("expired idle sessions", "count", n, "active", m.ActiveSessions())
	}
	return n, nil
}

func (m *managerBase) Close() error {
	return m.store.Close()
}

// expire removes a session found expired on access.
func (m *managerBase) expire(ctx context.Context, id string) {
	m.countMu.RLock()
	defer m.countMu.RUnlock()
	if err := m.store.Delete(ctx, id); err != nil {
		return
	}
	m.active.Add(-1)
	m.expired.Add(1)
}

// resync replaces the active counter with the store's own count.
func (m *managerBase) resync(ctx context.Context) error {
	m.countMu.Lock()
	defer m.countMu.Unlock()
	n, err := m.store.Count(ctx)
	if err != nil {
		return err
	}
	m.active.Store(int64(n))
	return nil
}
