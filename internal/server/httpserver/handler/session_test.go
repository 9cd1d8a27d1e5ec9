package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yndnr/sessgauge/internal/core/service"
	"github.com/yndnr/sessgauge/internal/telemetry/logger"
)

// withCurrent mimics the session middleware.
func withCurrent(t *testing.T, m service.Manager, r *http.Request) *http.Request {
	t.Helper()
	c, err := r.Cookie(CookieName)
	if err != nil {
		return r
	}
	s, err := m.Find(r.Context(), c.Value)
	if err != nil {
		return r
	}
	return r.WithContext(WithSession(r.Context(), s))
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	return nil
}

func TestSessionHandler_CreateThenTouch(t *testing.T) {
	m := service.NewStandardManager("/app", 10, service.WithLogger(logger.Discard()))
	h := NewSessionHandler("/app", m, logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/session", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" || cookie.Path != "/app" || !cookie.HttpOnly {
		t.Fatalf("session cookie = %+v", cookie)
	}
	var created SessionResponse
	decodeEnvelope(t, rec, &created)
	if !created.New || created.SessionID != cookie.Value {
		t.Errorf("created = %+v", created)
	}

	req := httptest.NewRequest(http.MethodGet, "/app/session", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCurrent(t, m, req))
	if rec.Code != http.StatusOK {
		t.Fatalf("touch status = %d", rec.Code)
	}
	var touched SessionResponse
	decodeEnvelope(t, rec, &touched)
	if touched.New || touched.SessionID != cookie.Value {
		t.Errorf("touched = %+v", touched)
	}
	if m.ActiveSessions() != 1 {
		t.Errorf("ActiveSessions() = %d, want 1", m.ActiveSessions())
	}
}

func TestSessionHandler_Limit(t *testing.T) {
	m := service.NewStandardManager("/app", 1, service.WithLogger(logger.Discard()))
	h := NewSessionHandler("/app", m, logger.Discard())

	for i, want := range []int{http.StatusCreated, http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/session", nil))
		if rec.Code != want {
			t.Errorf("request %d status = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	m := service.NewStandardManager("/app", -1, service.WithLogger(logger.Discard()))
	h := NewSessionHandler("/app", m, logger.Discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/app/session", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete without session status = %d, want 404", rec.Code)
	}

	s, err := m.Create(context.Background(), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodDelete, "/app/session", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCurrent(t, m, req))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	if c := sessionCookie(rec); c == nil || c.MaxAge >= 0 {
		t.Errorf("cookie not cleared: %+v", c)
	}
	if m.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", m.ActiveSessions())
	}
}
