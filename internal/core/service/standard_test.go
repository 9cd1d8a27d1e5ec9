package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/sessgauge/internal/core/domain"
)

func TestStandardManager_CreateFindInvalidate(t *testing.T) {
	m := NewStandardManager("/shop", UnlimitedSessions)
	ctx := context.Background()

	s, err := m.Create(ctx, &CreateSessionRequest{RemoteAddr: "10.0.0.1", UserAgent: "curl/8"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ActiveSessions() != 1 {
		t.Fatalf("ActiveSessions = %d, want 1", m.ActiveSessions())
	}

	got, err := m.Find(ctx, s.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.RemoteAddr != "10.0.0.1" {
		t.Errorf("RemoteAddr = %q", got.RemoteAddr)
	}

	if err := m.Invalidate(ctx, s.ID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if m.ActiveSessions() != 0 {
		t.Fatalf("ActiveSessions = %d, want 0", m.ActiveSessions())
	}
	if err := m.Invalidate(ctx, s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("second Invalidate err = %v", err)
	}
	if _, err := m.Find(ctx, "not-a-session"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Find(malformed) err = %v", err)
	}
}

func TestStandardManager_MaxActiveSessions(t *testing.T) {
	tests := []struct {
		name  string
		input int
		want  int
	}{
		{"limited", 100, 100},
		{"zero", 0, 0},
		{"unlimited", -1, UnlimitedSessions},
		{"negative normalised", -7, UnlimitedSessions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStandardManager("/", tt.input)
			if got := m.MaxActiveSessions(); got != tt.want {
				t.Errorf("MaxActiveSessions() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStandardManager_RejectsBeyondLimit(t *testing.T) {
	m := NewStandardManager("/", 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := m.Create(ctx, nil); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := m.Create(ctx, nil); !errors.Is(err, domain.ErrTooManyActiveSessions) {
		t.Fatalf("Create beyond limit err = %v, want %v", err, domain.ErrTooManyActiveSessions)
	}
	if m.RejectedSessions() != 1 {
		t.Errorf("RejectedSessions = %d, want 1", m.RejectedSessions())
	}
	if m.ActiveSessions() != 2 {
		t.Errorf("ActiveSessions = %d, want 2", m.ActiveSessions())
	}
}

func TestStandardManager_ConcurrentCreateHonoursLimit(t *testing.T) {
	m := NewStandardManager("/", 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Create(ctx, nil)
		}()
	}
	wg.Wait()

	if m.ActiveSessions() != 10 {
		t.Errorf("ActiveSessions = %d, want 10", m.ActiveSessions())
	}
	if m.RejectedSessions() != 40 {
		t.Errorf("RejectedSessions = %d, want 40", m.RejectedSessions())
	}
}

func TestStandardManager_Touch(t *testing.T) {
	m := NewStandardManager("/", UnlimitedSessions)
	ctx := context.Background()

	s, _ := m.Create(ctx, nil)
	touched, err := m.Touch(ctx, s.ID)
	if err != nil {
		t.Fatalf("Touch: %v", err)
	}
	if touched.Version != s.Version+1 {
		t.Errorf("Version = %d, want %d", touched.Version, s.Version+1)
	}
}

func TestStandardManager_ExpireSessions(t *testing.T) {
	m := NewStandardManager("/", UnlimitedSessions, WithMaxInactiveInterval(20*time.Millisecond))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := m.Create(ctx, nil); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(50 * time.Millisecond)

	n, err := m.ExpireSessions(ctx)
	if err != nil {
		t.Fatalf("ExpireSessions: %v", err)
	}
	if n != 3 {
		t.Errorf("expired %d, want 3", n)
	}
	if m.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions = %d, want 0", m.ActiveSessions())
	}
	if m.ExpiredSessions() != 3 {
		t.Errorf("ExpiredSessions = %d, want 3", m.ExpiredSessions())
	}
}

func TestStandardManager_FindExpiredRemovesSession(t *testing.T) {
	m := NewStandardManager("/", UnlimitedSessions, WithMaxInactiveInterval(10*time.Millisecond))
	ctx := context.Background()

	s, _ := m.Create(ctx, nil)
	time.Sleep(30 * time.Millisecond)

	if _, err := m.Find(ctx, s.ID); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("Find err = %v, want expired", err)
	}
	if m.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions = %d, want 0", m.ActiveSessions())
	}
}
