// Package httpserver is the embedded HTTP server hosting SessGauge's
// application contexts.
//
// The server exposes a small container hierarchy, Engine → Host → Context,
// through the interfaces of package container. Each Context is an
// application mounted at a path prefix with its own session manager.
// Contexts deployed before Start become children of the host when the
// server starts; Host returns nil until then.
//
// While running, the server sweeps idle sessions of every deployed context
// at a fixed interval.
package httpserver
