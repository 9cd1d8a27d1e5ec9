package metric

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/yndnr/sessgauge/internal/server/container"
)

// Session reading names.
const (
	MetricActiveSessions = "httpsessions.active"
	MetricMaxSessions    = "httpsessions.max"
)

var (
	// ErrNilServer is returned when the reader is given no server.
	ErrNilServer = errors.New("metric: server reference is nil")

	// ErrUnsupportedServer is returned in strict mode when the server does
	// not expose a container hierarchy.
	ErrUnsupportedServer = errors.New("metric: server does not expose a container hierarchy")
)

// ReaderOption configures a SessionReader.
type ReaderOption func(*readerOptions)

type readerOptions struct {
	strict bool
	logger *slog.Logger
}

// WithStrictServerType makes NewSessionReader fail with ErrUnsupportedServer
// instead of producing a reader that never reports anything.
func WithStrictServerType() ReaderOption {
	return func(o *readerOptions) {
		o.strict = true
	}
}

// WithReaderLogger sets the logger used for construction diagnostics.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// SessionReader reads session counts from an embedded server.
//
// The server is inspected once at construction. Each Collect call walks
// server.Host() to the first deployable application context and reads its
// session manager; nothing is cached between calls.
type SessionReader struct {
	root container.Root
}

// NewSessionReader creates a reader for server.
//
// A nil server is a configuration error. A server that is not a
// container.Root yields a reader whose Collect always returns no readings,
// unless WithStrictServerType is given.
func NewSessionReader(server any, opts ...ReaderOption) (*SessionReader, error) {
	o := readerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if isNil(server) {
		return nil, ErrNilServer
	}

	root, ok := server.(container.Root)
	if !ok {
		if o.strict {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedServer, server)
		}
		o.logger.Info("session metrics unavailable for server type",
			"type", fmt.Sprintf("%T", server))
	}

	return &SessionReader{root: root}, nil
}

// Supported reports whether the server exposes a container hierarchy.
func (r *SessionReader) Supported() bool {
	return r != nil && r.root != nil
}

// Collect returns the current session readings: none when no session
// manager is reachable, otherwise httpsessions.active and, if the manager
// has a configured maximum, httpsessions.max.
func (r *SessionReader) Collect() []Reading {
	manager := r.manager()
	if manager == nil {
		return nil
	}

	readings := make([]Reading, 0, 2)
	readings = append(readings, Reading{
		Name:  MetricActiveSessions,
		Value: float64(manager.ActiveSessions()),
	})
	if limiter, ok := manager.(container.SessionLimiter); ok {
		readings = append(readings, Reading{
			Name:  MetricMaxSessions,
			Value: float64(limiter.MaxActiveSessions()),
		})
	}
	return readings
}

// manager returns the session manager of the first deployed context.
func (r *SessionReader) manager() container.SessionCounter {
	if !r.Supported() {
		return nil
	}
	host := r.root.Host()
	if isNil(host) {
		return nil
	}
	for _, child := range host.Children() {
		if ctx, ok := child.(container.Deployable); ok {
			manager := ctx.SessionManager()
			if isNil(manager) {
				return nil
			}
			return manager
		}
	}
	return nil
}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
