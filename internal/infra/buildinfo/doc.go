// Package buildinfo reports the version of the running binary.
//
// Release builds inject values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/sessgauge/internal/infra/buildinfo.Version=v1.0.0"
//
// Unset values fall back to the module build information embedded by the
// Go toolchain.
package buildinfo
