// Package service provides the session managers of SessGauge.
//
// A Manager tracks the sessions of one deployed application context:
// creation, lookup, invalidation and idle expiry. Two variants exist:
//
//   - StandardManager keeps sessions in memory and enforces a configurable
//     maximum number of concurrent active sessions.
//   - PersistentManager keeps sessions in a durable store and has no
//     maximum.
//
// Both keep an active-session counter that can be read without touching
// the store, so metric collection never performs I/O.
package service
