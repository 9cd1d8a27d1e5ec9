package httpserver

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/yndnr/sessgauge/internal/core/service"
	"github.com/yndnr/sessgauge/internal/server/container"
	"github.com/yndnr/sessgauge/internal/server/httpserver/handler"
)

// Engine is the top-level container. Its only child is the host.
type Engine struct {
	name string

	mu   sync.RWMutex
	host *Host
}

func newEngine(name string) *Engine {
	return &Engine{name: name}
}

// Name implements container.Container.
func (e *Engine) Name() string { return e.name }

// Children implements container.Container.
func (e *Engine) Children() []container.Container {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.host == nil {
		return nil
	}
	return []container.Container{e.host}
}

// Host returns the engine's host, or nil before start.
func (e *Engine) Host() *Host {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.host
}

func (e *Engine) setHost(h *Host) {
	e.mu.Lock()
	e.host = h
	e.mu.Unlock()
}

// Host is a virtual host holding application contexts.
type Host struct {
	name string

	mu       sync.RWMutex
	contexts []*Context
}

func newHost(name string) *Host {
	return &Host{name: name}
}

// Name implements container.Container.
func (h *Host) Name() string { return h.name }

// Children implements container.Container. Contexts are returned in
// deployment order.
func (h *Host) Children() []container.Container {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]container.Container, len(h.contexts))
	for i, c := range h.contexts {
		out[i] = c
	}
	return out
}

// Contexts returns the deployed contexts in deployment order.
func (h *Host) Contexts() []*Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Context, len(h.contexts))
	copy(out, h.contexts)
	return out
}

func (h *Host) addContext(c *Context) {
	h.mu.Lock()
	h.contexts = append(h.contexts, c)
	h.mu.Unlock()
}

// match returns the context with the longest path prefixing urlPath.
func (h *Host) match(urlPath string) *Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var best *Context
	for _, c := range h.contexts {
		if urlPath != c.Path && !strings.HasPrefix(urlPath, c.Path+"/") {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}

// Context is an application deployed at a path prefix.
type Context struct {
	// Path is the mount point, e.g. "/shop". No trailing slash.
	Path string

	// Manager tracks the context's sessions.
	Manager service.Manager

	handler http.Handler
}

// NewContext creates a context mounted at path.
func NewContext(path string, manager service.Manager) *Context {
	return &Context{
		Path:    NormalizeContextPath(path),
		Manager: manager,
	}
}

// Name implements container.Container.
func (c *Context) Name() string { return c.Path }

// Children implements container.Container.
func (c *Context) Children() []container.Container { return nil }

// SessionManager implements container.Deployable.
func (c *Context) SessionManager() container.SessionCounter {
	if c == nil || c.Manager == nil {
		return nil
	}
	return c.Manager
}

// ServeHTTP serves requests below the context path.
func (c *Context) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

// start builds the context's request pipeline.
func (c *Context) start(logger *slog.Logger) {
	c.handler = Chain(
		handler.NewSessionHandler(c.Path, c.Manager, logger),
		Sessions(c.Manager),
	)
}

// NormalizeContextPath returns path with exactly one leading slash and no
// trailing slash.
func NormalizeContextPath(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	return "/" + path
}
