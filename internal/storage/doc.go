// Package storage provides durable session storage for SessGauge.
//
// BadgerStore keeps sessions in a Badger v3 database so they survive
// restarts. Each session is stored as a JSON document under "session/{id}"
// with a Badger TTL of its idle timeout plus a grace period; the session
// manager's sweeper removes expired sessions before Badger does.
//
// A background loop runs value log GC at a configurable interval.
package storage
