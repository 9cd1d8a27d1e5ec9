// Package container defines the capabilities of the embedded server's
// container hierarchy (host, application contexts, session managers).
//
// Consumers such as metric readers depend on these interfaces rather than on
// the concrete server types, and check for optional capabilities with a
// type assertion.
package container
