// Package logger configures structured logging for SessGauge.
//
// It builds *slog.Logger values on top of log/slog:
//
//   - logger.go: handler construction and the process-wide dynamic level
//   - context.go: request-scoped loggers carrying the request ID
//   - redact.go: masking of session IDs and secret-looking attributes
//
// Components take a *slog.Logger in their constructors; the level can be
// changed at runtime with SetLevel (the config watcher does this when the
// config file changes).
package logger
