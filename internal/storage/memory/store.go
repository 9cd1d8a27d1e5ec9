package memory

import (
	"context"
	"time"

	"github.com/yndnr/sessgauge/internal/core/domain"
	"github.com/yndnr/sessgauge/pkg/cmap"
)

// Store keeps sessions in memory.
type Store struct {
	sessions *cmap.Map[*domain.Session]
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShards sets the number of map shards (power of two).
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates an empty in-memory store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		sessions: cmap.NewWithShards[*domain.Session](o.shards),
	}
}

// Create stores a new session. It fails with ErrSessionConflict if the ID is taken.
func (s *Store) Create(_ context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if !s.sessions.SetIfAbsent(session.ID, session.Clone()) {
		return domain.ErrSessionConflict
	}
	return nil
}

// Get returns a copy of the session with the given ID.
// Expired sessions are reported as ErrSessionExpired until they are swept.
func (s *Store) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, domain.ErrSessionExpired
	}
	return session.Clone(), nil
}

// Update replaces a stored session if its version still matches.
// On success session.Version is advanced to the stored version.
func (s *Store) Update(_ context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	var conflict bool
	found := s.sessions.Update(session.ID, func(existing *domain.Session) *domain.Session {
		if existing.Version != session.Version {
			conflict = true
			return existing
		}
		clone := session.Clone()
		clone.Version++
		return clone
	})
	if !found {
		return domain.ErrSessionNotFound
	}
	if conflict {
		return domain.ErrSessionConflict.WithDetails("version mismatch")
	}
	session.Version++
	return nil
}

// Delete removes a session.
func (s *Store) Delete(_ context.Context, id string) error {
	if _, ok := s.sessions.Pop(id); !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Count returns the number of stored sessions, expired or not.
func (s *Store) Count(_ context.Context) (int, error) {
	return s.sessions.Count(), nil
}

// DeleteExpired removes every session that is expired at now.
func (s *Store) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	removed := s.sessions.DeleteFunc(func(_ string, session *domain.Session) bool {
		return session.IsExpiredAt(now)
	})
	return len(removed), nil
}

// Close is a no-op; it exists so Store satisfies the same contract as
// persistent stores.
func (s *Store) Close() error {
	return nil
}
