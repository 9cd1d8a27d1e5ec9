// Package domain defines the core domain models for SessGauge.
//
// Domain models are plain values without IO dependencies:
//
//   - Session: an HTTP session tracked by a session manager
//   - Errors: coded domain errors shared by managers, stores and handlers
//
// Sessions carry a version number so stores can reject stale writes.
package domain
