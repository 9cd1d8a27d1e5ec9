package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/yndnr/sessgauge/internal/core/service"
	"github.com/yndnr/sessgauge/internal/server/container"
	"github.com/yndnr/sessgauge/internal/server/httpserver/handler"
	"github.com/yndnr/sessgauge/internal/telemetry/logger"
	"github.com/yndnr/sessgauge/internal/telemetry/metric"
)

func newTestServer(t *testing.T, contexts ...*Context) *Server {
	t.Helper()
	s := New(Config{Addr: "127.0.0.1:0", Logger: logger.Discard()})
	for _, c := range contexts {
		if err := s.Deploy(c); err != nil {
			t.Fatalf("Deploy(%s) error = %v", c.Path, err)
		}
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func startServer(t *testing.T, s *Server) {
	t.Helper()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
}

func TestServer_HostLifecycle(t *testing.T) {
	var nilServer *Server
	if nilServer.Host() != nil {
		t.Fatal("Host() on nil server not nil")
	}

	s := newTestServer(t, NewContext("/app", service.NewStandardManager("/app", 10)))
	if s.Host() != nil {
		t.Fatal("Host() before Start not nil")
	}
	if len(s.Engine().Children()) != 0 {
		t.Error("engine has children before Start")
	}

	startServer(t, s)

	host := s.Host()
	if host == nil {
		t.Fatal("Host() after Start is nil")
	}
	children := host.Children()
	if len(children) != 1 || children[0].Name() != "/app" {
		t.Fatalf("host children = %v", children)
	}
	if _, ok := children[0].(container.Deployable); !ok {
		t.Error("context does not implement container.Deployable")
	}
	if len(s.Engine().Children()) != 1 {
		t.Error("engine does not expose the host")
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if s.Host() != nil {
		t.Error("Host() after Shutdown not nil")
	}
}

func TestServer_StartTwice(t *testing.T) {
	s := newTestServer(t)
	startServer(t, s)
	if err := s.Start(context.Background()); !errors.Is(err, ErrServerStarted) {
		t.Errorf("second Start() error = %v, want ErrServerStarted", err)
	}
}

func TestServer_Deploy(t *testing.T) {
	m := service.NewStandardManager("ctx", -1)

	tests := []struct {
		name    string
		ctx     *Context
		wantErr error
	}{
		{name: "nil", ctx: nil, wantErr: ErrInvalidContext},
		{name: "no manager", ctx: &Context{Path: "/a"}, wantErr: ErrInvalidContext},
		{name: "root", ctx: NewContext("/", m), wantErr: ErrInvalidContext},
		{name: "reserved", ctx: NewContext("/admin/x", m), wantErr: ErrInvalidContext},
		{name: "ok", ctx: NewContext("shop/", m)},
		{name: "duplicate", ctx: NewContext("/shop", m), wantErr: ErrDuplicateContext},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Deploy(tt.ctx)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Deploy() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Deploy() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestServer_DeployAfterStart(t *testing.T) {
	s := newTestServer(t, NewContext("/first", service.NewStandardManager("/first", 5)))
	startServer(t, s)

	if err := s.Deploy(NewContext("/second", service.NewStandardManager("/second", 5))); err != nil {
		t.Fatalf("Deploy() error = %v", err)
	}
	children := s.Host().Children()
	if len(children) != 2 || children[1].Name() != "/second" {
		t.Fatalf("host children = %v", children)
	}

	resp, err := http.Get("http://" + s.Addr() + "/second/session")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want 201", resp.StatusCode)
	}
}

func TestServer_SessionMetrics(t *testing.T) {
	m := service.NewStandardManager("/app", 100)
	s := newTestServer(t, NewContext("/app", m))

	reader, err := metric.NewSessionReader(s)
	if err != nil {
		t.Fatalf("NewSessionReader() error = %v", err)
	}
	if got := reader.Collect(); len(got) != 0 {
		t.Fatalf("Collect() before Start = %v, want empty", got)
	}

	startServer(t, s)

	for i := 0; i < 5; i++ {
		resp, err := http.Get("http://" + s.Addr() + "/app/session")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
	}

	got := metric.Snapshot(reader)
	if len(got) != 2 || got[metric.MetricActiveSessions] != 5 || got[metric.MetricMaxSessions] != 100 {
		t.Errorf("readings = %v, want active 5 max 100", got)
	}
}

func TestServer_StatsEndpoint(t *testing.T) {
	s := newTestServer(t,
		NewContext("/bounded", service.NewStandardManager("/bounded", 3)),
		NewContext("/open", service.NewStandardManager("/open", -1)),
	)
	reader, err := metric.NewSessionReader(s)
	if err != nil {
		t.Fatalf("NewSessionReader() error = %v", err)
	}
	s.AddStatsSource(reader)
	startServer(t, s)

	resp, err := http.Get("http://" + s.Addr() + "/admin/v1/sessions/stats")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data handler.StatsResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if !body.Data.Started {
		t.Error("started = false")
	}
	if len(body.Data.Contexts) != 2 {
		t.Fatalf("contexts = %+v", body.Data.Contexts)
	}
	if mx := body.Data.Contexts[0].MaxSessions; mx == nil || *mx != 3 {
		t.Errorf("bounded max = %v, want 3", mx)
	}
	if mx := body.Data.Contexts[1].MaxSessions; mx == nil || *mx != -1 {
		t.Errorf("open max = %v, want -1", mx)
	}
	if body.Data.Readings[metric.MetricMaxSessions] != 3 {
		t.Errorf("readings = %v, want first context", body.Data.Readings)
	}
}

func TestServer_ExpireSessions(t *testing.T) {
	m := service.NewStandardManager("/app", -1, service.WithMaxInactiveInterval(time.Millisecond))
	s := newTestServer(t, NewContext("/app", m))
	startServer(t, s)

	for i := 0; i < 3; i++ {
		if _, err := m.Create(context.Background(), nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	time.Sleep(10 * time.Millisecond)

	if n := s.ExpireSessions(context.Background()); n != 3 {
		t.Errorf("ExpireSessions() = %d, want 3", n)
	}
	if m.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d, want 0", m.ActiveSessions())
	}
}

func TestServer_RestartKeepsContexts(t *testing.T) {
	s := newTestServer(t, NewContext("/app", service.NewStandardManager("/app", 1)))
	startServer(t, s)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	startServer(t, s)
	if n := len(s.Host().Children()); n != 1 {
		t.Errorf("children after restart = %d, want 1", n)
	}
}

func TestServer_DeployWhileDraining(t *testing.T) {
	s := newTestServer(t, NewContext("/app", service.NewStandardManager("/app", -1)))
	startServer(t, s)
	addr := s.Addr()

	// A request with unfinished headers keeps the connection open, so
	// Shutdown stays in its drain phase until the client goes away.
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("GET /app/session HTTP/1.1\r\nHost: test\r\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- s.Shutdown(ctx)
	}()

	// The listener closes as soon as the drain starts.
	deadline := time.Now().Add(2 * time.Second)
	for {
		c, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			break
		}
		c.Close()
		if time.Now().After(deadline) {
			t.Fatal("listener still open")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Deploy(NewContext("/late", service.NewStandardManager("/late", -1))); err != nil {
		t.Fatalf("Deploy(/late) during shutdown error = %v", err)
	}
	if err := s.Deploy(NewContext("/late", service.NewStandardManager("/late", -1))); !errors.Is(err, ErrDuplicateContext) {
		t.Errorf("second Deploy(/late) error = %v, want %v", err, ErrDuplicateContext)
	}
	if err := s.Deploy(NewContext("/app", service.NewStandardManager("/app", -1))); !errors.Is(err, ErrDuplicateContext) {
		t.Errorf("Deploy(/app) error = %v, want %v", err, ErrDuplicateContext)
	}

	conn.Close()
	if err := <-done; err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	startServer(t, s)
	var paths []string
	for _, child := range s.Host().Children() {
		paths = append(paths, child.Name())
	}
	if len(paths) != 2 || paths[0] != "/app" || paths[1] != "/late" {
		t.Errorf("contexts after restart = %v, want [/app /late]", paths)
	}
}
