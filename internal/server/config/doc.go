// Package config defines the sessgauge-server configuration.
//
//   - spec.go: ServerConfig and its sections
//   - default.go: default values and Normalize
//   - verify.go: validation
//   - sanitize.go: a copy safe to log
//
// Values are loaded by internal/infra/confloader from a YAML file, the
// environment and command-line flags.
package config
