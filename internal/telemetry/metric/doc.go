// Package metric turns runtime statistics into named readings and exports
// them in Prometheus format.
//
//   - reading.go: the Reading value and the Source contract
//   - session.go: SessionReader, which reads session counts from the
//     embedded server's first deployed application context
//   - collector.go: a prometheus.Collector over any number of Sources
//   - prometheus.go: the process registry, request metrics and /metrics handler
//
// Session readings are exposed as:
//
//	httpsessions.active  current active sessions (always, when a manager exists)
//	httpsessions.max     configured maximum, when the manager has one
//
// In Prometheus output the dots become underscores.
package metric
