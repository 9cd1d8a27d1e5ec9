package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yndnr/sessgauge/internal/core/domain"
)

func newSession(t *testing.T, maxInactive time.Duration) *domain.Session {
	t.Helper()
	s, err := domain.NewSession(maxInactive)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestStore_CreateGetDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	s := newSession(t, time.Hour)

	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, s); !errors.Is(err, domain.ErrSessionConflict) {
		t.Fatalf("duplicate Create err = %v, want %v", err, domain.ErrSessionConflict)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != s.ID {
		t.Fatalf("Get ID = %q, want %q", got.ID, s.ID)
	}

	n, _ := store.Count(ctx)
	if n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Get after Delete err = %v, want %v", err, domain.ErrSessionNotFound)
	}
	if err := store.Delete(ctx, s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("second Delete err = %v", err)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()
	s := newSession(t, time.Hour)
	_ = store.Create(ctx, s)

	got, _ := store.Get(ctx, s.ID)
	got.Attributes["mutated"] = "yes"

	again, _ := store.Get(ctx, s.ID)
	if _, ok := again.Attributes["mutated"]; ok {
		t.Fatal("mutating a returned session must not affect the store")
	}
}

func TestStore_UpdateVersionConflict(t *testing.T) {
	store := New()
	ctx := context.Background()
	s := newSession(t, time.Hour)
	_ = store.Create(ctx, s)

	a, _ := store.Get(ctx, s.ID)
	b, _ := store.Get(ctx, s.ID)

	a.Touch()
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("Update a: %v", err)
	}
	if a.Version != 2 {
		t.Fatalf("a.Version = %d, want 2", a.Version)
	}

	b.Touch()
	if err := store.Update(ctx, b); !errors.Is(err, domain.ErrSessionConflict) {
		t.Fatalf("Update b err = %v, want conflict", err)
	}
}

func TestStore_ExpiredSessions(t *testing.T) {
	store := New()
	ctx := context.Background()

	stale := newSession(t, time.Minute)
	stale.LastActive = time.Now().Add(-time.Hour).UnixMilli()
	fresh := newSession(t, time.Minute)
	forever := newSession(t, 0)
	forever.LastActive = time.Now().Add(-24 * time.Hour).UnixMilli()

	for _, s := range []*domain.Session{stale, fresh, forever} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if _, err := store.Get(ctx, stale.ID); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("Get(stale) err = %v, want expired", err)
	}

	n, err := store.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("DeleteExpired removed %d, want 1", n)
	}
	if count, _ := store.Count(ctx); count != 2 {
		t.Fatalf("Count = %d, want 2", count)
	}
}

func TestStore_EmptyAttributesRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	s := newSession(t, time.Hour)
	s.Attributes = nil
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Attributes == nil {
		t.Fatal("Attributes is nil after round trip")
	}
	got.Attributes["theme"] = "dark"
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
}
