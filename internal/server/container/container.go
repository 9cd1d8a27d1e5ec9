package container

// Container is a node of the server's container hierarchy.
type Container interface {
	// Name identifies the container among its siblings.
	Name() string

	// Children returns the child containers in registration order.
	Children() []Container
}

// Root is implemented by servers that expose their top-level container.
// Host returns nil while no host is available, e.g. before start.
type Root interface {
	Host() Container
}

// Deployable is an application context: a container owning a session manager.
type Deployable interface {
	Container

	// SessionManager returns the context's session manager, or nil.
	SessionManager() SessionCounter
}

// SessionCounter reports the number of active sessions.
type SessionCounter interface {
	ActiveSessions() int
}

// SessionLimiter is an optional SessionCounter capability reporting the
// configured maximum of concurrent active sessions (-1 for unlimited).
type SessionLimiter interface {
	MaxActiveSessions() int
}
