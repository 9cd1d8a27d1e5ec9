package service

import (
	"context"
	"sync"

	"github.com/yndnr/sessgauge/internal/core/domain"
	"github.com/yndnr/sessgauge/internal/storage/memory"
)

// UnlimitedSessions disables the active session limit.
const UnlimitedSessions = -1

// StandardManager keeps sessions in memory and caps concurrent sessions.
type StandardManager struct {
	*managerBase

	maxActive int

	// admit serialises the limit check with the insert it guards.
	admit    sync.Mutex
	rejected int64
}

// NewStandardManager creates an in-memory manager for the named context.
// maxActive < 0 means unlimited.
func NewStandardManager(name string, maxActive int, opts ...Option) *StandardManager {
	if maxActive < 0 {
		maxActive = UnlimitedSessions
	}
	return &StandardManager{
		managerBase: newManagerBase(name, memory.New(), opts),
		maxActive:   maxActive,
	}
}

// MaxActiveSessions returns the configured limit, or -1 when unlimited.
func (m *StandardManager) MaxActiveSessions() int {
	return m.maxActive
}

// RejectedSessions returns how many creations were refused by the limit.
func (m *StandardManager) RejectedSessions() int64 {
	m.admit.Lock()
	defer m.admit.Unlock()
	return m.rejected
}

// Create starts a new session unless the active limit has been reached.
func (m *StandardManager) Create(ctx context.Context, req *CreateSessionRequest) (*domain.Session, error) {
	m.admit.Lock()
	defer m.admit.Unlock()

	if m.maxActive >= 0 && m.ActiveSessions() >= m.maxActive {
		m.rejected++
		m.logger.Warn("session limit reached", "max_active", m.maxActive)
		return nil, domain.ErrTooManyActiveSessions
	}
	return m.managerBase.Create(ctx, req)
}
