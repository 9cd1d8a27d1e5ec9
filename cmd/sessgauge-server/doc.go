// Package main provides the entry point for sessgauge-server.
//
// sessgauge-server hosts application contexts with their own session
// managers and exports session counts as metrics.
package main
