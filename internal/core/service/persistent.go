package service

import (
	"context"
	"fmt"
)

// PersistentManager keeps sessions in a durable store. It does not limit the
// number of concurrent sessions.
type PersistentManager struct {
	*managerBase
}

// NewPersistentManager creates a manager over store, drops stored sessions
// that went idle while it was closed, and primes its active counter from
// the rest.
func NewPersistentManager(ctx context.Context, name string, store SessionStore, opts ...Option) (*PersistentManager, error) {
	m := &PersistentManager{managerBase: newManagerBase(name, store, opts)}
	if _, err := m.ExpireSessions(ctx); err != nil {
		return nil, fmt.Errorf("restore stored sessions: %w", err)
	}
	m.logger.Info("persistent session manager ready", "restored", m.ActiveSessions())
	return m, nil
}
