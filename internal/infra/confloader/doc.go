// Package confloader loads configuration with koanf and watches the config
// file for changes.
//
// Sources, lowest priority first:
//
//  1. Values already present in the target struct (defaults)
//  2. YAML configuration file
//  3. Environment variables (SESSGAUGE_ prefix)
//  4. Explicit overrides, typically command-line flags (LoadMap)
//
// Environment variable names map to keys by lowercasing and turning a
// double underscore into a section separator:
//
//	SESSGAUGE_SERVER__ADDR=:9090               -> server.addr
//	SESSGAUGE_SESSION__EXPIRY_INTERVAL=30s     -> session.expiry_interval
package confloader
