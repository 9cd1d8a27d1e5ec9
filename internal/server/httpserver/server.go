package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/sessgauge/internal/server/container"
	"github.com/yndnr/sessgauge/internal/telemetry/metric"
)

var (
	// ErrServerStarted is returned by Start on a running server.
	ErrServerStarted = errors.New("httpserver: server already started")

	// ErrInvalidContext is returned by Deploy for a context without a
	// usable path or manager.
	ErrInvalidContext = errors.New("httpserver: invalid context")

	// ErrDuplicateContext is returned by Deploy when the path is taken.
	ErrDuplicateContext = errors.New("httpserver: context path already deployed")
)

// Paths served by the server itself; contexts may not shadow them.
var reservedPaths = []string{"/health", "/ready", "/metrics", "/admin"}

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080". ":0" picks a free port.
	Addr string

	// HostName names the host container.
	HostName string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// ExpiryInterval is the idle session sweep period. Zero disables it.
	ExpiryInterval time.Duration

	// RateLimit is the per-client request rate; zero disables limiting.
	RateLimit float64
	RateBurst int

	Logger *slog.Logger
}

// DefaultConfig returns the settings used for zero fields.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		HostName:       "localhost",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		ExpiryInterval: time.Minute,
	}
}

// Server is the embedded HTTP server.
type Server struct {
	cfg    Config
	logger *slog.Logger
	engine *Engine

	mu         sync.Mutex
	pending    []*Context
	started    bool
	httpServer *http.Server
	listener   net.Listener
	metrics    http.Handler
	observer   metric.RequestObserver
	sources    []metric.Source

	cancel context.CancelFunc
	wg     sync.WaitGroup
	errCh  chan error
}

// New creates a server. Contexts are added with Deploy; nothing listens
// until Start.
func New(cfg Config) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.HostName == "" {
		cfg.HostName = def.HostName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "httpserver"),
		engine: newEngine("sessgauge"),
		errCh:  make(chan error, 1),
	}
}

// UseMetrics mounts h at GET /metrics and reports every request to obs.
// Either may be nil. Must be called before Start.
func (s *Server) UseMetrics(h http.Handler, obs metric.RequestObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = h
	s.observer = obs
}

// AddStatsSource adds sources to the /admin/v1/sessions/stats view.
// Must be called before Start.
func (s *Server) AddStatsSource(sources ...metric.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, sources...)
}

// Deploy adds an application context. Before Start the context is queued;
// on a running server it is started and becomes a host child at once.
func (s *Server) Deploy(c *Context) error {
	if c == nil || c.Manager == nil {
		return ErrInvalidContext
	}
	c.Path = NormalizeContextPath(c.Path)
	if c.Path == "/" {
		return fmt.Errorf("%w: root path", ErrInvalidContext)
	}
	for _, p := range reservedPaths {
		if c.Path == p || strings.HasPrefix(c.Path, p+"/") {
			return fmt.Errorf("%w: %s is reserved", ErrInvalidContext, c.Path)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.contextsLocked() {
		if existing.Path == c.Path {
			return fmt.Errorf("%w: %s", ErrDuplicateContext, c.Path)
		}
	}

	if !s.started {
		s.pending = append(s.pending, c)
		return nil
	}
	c.start(s.cfg.Logger)
	s.engine.Host().addContext(c)
	s.logger.Info("context deployed", "path", c.Path)
	return nil
}

// contextsLocked returns the started contexts followed by the queued ones.
// Both are non-empty while a shutdown drains.
func (s *Server) contextsLocked() []*Context {
	var out []*Context
	if h := s.engine.Host(); h != nil {
		out = h.Contexts()
	}
	return append(out, s.pending...)
}

// Start deploys queued contexts, starts the expiry loop and begins serving.
// It returns once the listener is bound; serve errors are reported on Errors.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerStarted
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}

	host := newHost(s.cfg.HostName)
	for _, c := range s.pending {
		c.start(s.cfg.Logger)
		host.addContext(c)
	}
	s.pending = nil
	s.engine.setHost(host)

	s.httpServer = &http.Server{
		Handler: NewRouter(&RouterConfig{
			Server:    s,
			Match:     s.matchContext,
			Metrics:   s.metrics,
			Observer:  s.observer,
			Sources:   s.sources,
			Logger:    s.cfg.Logger,
			RateLimit: s.cfg.RateLimit,
			RateBurst: s.cfg.RateBurst,
		}),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.cfg.Logger.Handler(), slog.LevelWarn),
	}
	s.listener = ln
	s.started = true

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.cfg.ExpiryInterval > 0 {
		s.wg.Add(1)
		go s.expiryLoop(loopCtx)
	}

	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", "error", err)
			select {
			case s.errCh <- err:
			default:
			}
		}
	}()

	s.logger.Info("server started", "addr", ln.Addr().String(), "contexts", len(host.Contexts()))
	return nil
}

// Errors delivers a fatal serve error, if one occurs.
func (s *Server) Errors() <-chan error {
	return s.errCh
}

// Addr returns the bound listen address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Addr
}

// Engine returns the top-level container.
func (s *Server) Engine() *Engine {
	return s.engine
}

// Host implements container.Root. It returns nil on a nil server and
// while the server is not running.
func (s *Server) Host() container.Container {
	if s == nil || s.engine == nil {
		return nil
	}
	if h := s.engine.Host(); h != nil {
		return h
	}
	return nil
}

// Shutdown stops the expiry loop and gracefully stops serving. Managers are
// not closed; they belong to the caller. Deployed contexts are queued again,
// ahead of any deployed while draining, so a later Start serves them all.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	srv := s.httpServer
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	err := srv.Shutdown(ctx)

	s.mu.Lock()
	if h := s.engine.Host(); h != nil {
		s.pending = append(h.Contexts(), s.pending...)
	}
	s.engine.setHost(nil)
	s.listener = nil
	s.mu.Unlock()

	s.logger.Info("server stopped")
	return err
}

func (s *Server) matchContext(path string) *Context {
	h := s.engine.Host()
	if h == nil {
		return nil
	}
	return h.match(path)
}

func (s *Server) expiryLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ExpiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ExpireSessions(ctx)
		}
	}
}

// ExpireSessions runs one idle-session sweep over every deployed context and
// returns the number of sessions removed.
func (s *Server) ExpireSessions(ctx context.Context) int {
	h := s.engine.Host()
	if h == nil {
		return 0
	}
	total := 0
	for _, c := range h.Contexts() {
		n, err := c.Manager.ExpireSessions(ctx)
		if err != nil {
			s.logger.Warn("session expiry failed", "path", c.Path, "error", err)
		}
		total += n
	}
	return total
}
