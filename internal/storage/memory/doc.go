// Package memory provides in-memory session storage for SessGauge.
//
// Sessions live in a sharded concurrent map keyed by session ID. Stored
// values are cloned on the way in and on the way out, so callers never share
// a *domain.Session with the store. Updates use the session version for
// optimistic locking.
package memory
