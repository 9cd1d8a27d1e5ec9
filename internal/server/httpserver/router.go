package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/sessgauge/internal/core/domain"
	"github.com/yndnr/sessgauge/internal/server/container"
	"github.com/yndnr/sessgauge/internal/server/httpserver/handler"
	"github.com/yndnr/sessgauge/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Server backs readiness and the stats view.
	Server container.Root

	// Match resolves a request path to a deployed context.
	Match func(path string) *Context

	// Metrics serves GET /metrics. Nil leaves the route unmapped.
	Metrics http.Handler

	// Observer receives request metrics.
	Observer metric.RequestObserver

	// Sources feed the stats view.
	Sources []metric.Source

	Logger *slog.Logger

	// RateLimit is the per-client request rate; zero disables it.
	RateLimit float64
	RateBurst int
}

// NewRouter builds the server handler.
//
// Order: RequestID -> Recover -> Instrument -> RateLimit -> routes.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = slog.Default()
	}

	h := handler.New(handler.Config{
		Server:  cfg.Server,
		Sources: cfg.Sources,
		Logger:  l,
	})

	mux := http.NewServeMux()
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)
	mux.Handle("GET /admin/v1/sessions/stats", h)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}
	mux.Handle("/", contextDispatcher(cfg.Match))

	// Instrument wraps Recover so recovered panics are counted as 500s.
	return Chain(mux,
		RequestID(),
		Instrument(cfg.Observer),
		Recover(l),
		RateLimit(cfg.RateLimit, cfg.RateBurst),
	)
}

// contextDispatcher hands a request to the context owning its path.
func contextDispatcher(match func(string) *Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c *Context
		if match != nil {
			c = match(r.URL.Path)
		}
		if c == nil {
			handler.WriteError(w, r, http.StatusNotFound, domain.ErrNotFound.Code, "no context mapped to "+r.URL.Path)
			return
		}
		c.ServeHTTP(w, r)
	})
}
