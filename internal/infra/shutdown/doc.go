// Package shutdown coordinates graceful termination of sessgauge-server.
//
// Components register hooks with OnShutdown. Wait blocks until SIGINT or
// SIGTERM arrives, Trigger is called (e.g. after a fatal serve error) or the
// parent context ends, then runs the hooks in reverse registration order
// under a shared timeout.
package shutdown
