package config

import (
	"path/filepath"
	"strings"
	"time"
)

// ServerConfig is the root configuration for sessgauge-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server" yaml:"server"`
	Session  SessionSection  `koanf:"session" yaml:"session"`
	Storage  StorageSection  `koanf:"storage" yaml:"storage"`
	Contexts []ContextConfig `koanf:"contexts" yaml:"contexts"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
	Log      LogSection      `koanf:"log" yaml:"log"`
}

// ServerSection configures the HTTP listener.
type ServerSection struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	HostName        string        `koanf:"host_name" yaml:"host_name"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`

	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst"`
}

// SessionSection holds session defaults inherited by every context.
type SessionSection struct {
	// MaxInactiveInterval is the idle timeout. Zero means sessions never idle out.
	MaxInactiveInterval time.Duration `koanf:"max_inactive_interval" yaml:"max_inactive_interval"`

	// ExpiryInterval is how often idle sessions are swept. Zero disables sweeping.
	ExpiryInterval time.Duration `koanf:"expiry_interval" yaml:"expiry_interval"`

	// MaxActiveSessions caps standard managers; -1 means unlimited.
	MaxActiveSessions int `koanf:"max_active_sessions" yaml:"max_active_sessions"`
}

// StorageSection configures the Badger store behind persistent contexts.
type StorageSection struct {
	DataDir       string        `koanf:"data_dir" yaml:"data_dir"`
	InMemory      bool          `koanf:"in_memory" yaml:"in_memory"`
	SyncWrites    bool          `koanf:"sync_writes" yaml:"sync_writes"`
	GCInterval    time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	GCThreshold   float64       `koanf:"gc_threshold" yaml:"gc_threshold"`
	EncryptionKey string        `koanf:"encryption_key" yaml:"encryption_key"`
}

// Manager kinds.
const (
	ManagerStandard   = "standard"
	ManagerPersistent = "persistent"
)

// ContextConfig describes one application context.
type ContextConfig struct {
	Path string `koanf:"path" yaml:"path"`

	// Manager is "standard" (in memory, bounded) or "persistent" (Badger).
	Manager string `koanf:"manager" yaml:"manager"`

	// MaxActiveSessions overrides session.max_active_sessions. Standard only.
	MaxActiveSessions *int `koanf:"max_active_sessions" yaml:"max_active_sessions"`

	// MaxInactiveInterval overrides session.max_inactive_interval.
	MaxInactiveInterval *time.Duration `koanf:"max_inactive_interval" yaml:"max_inactive_interval"`
}

// StorageDir returns the Badger directory of a persistent context below base.
func (c ContextConfig) StorageDir(base string) string {
	name := strings.Trim(c.Path, "/")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = "root"
	}
	return filepath.Join(base, "contexts", name)
}

// MetricsSection configures the metrics endpoint and session reader.
type MetricsSection struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`

	// StrictServerType makes startup fail when the server does not expose
	// a container hierarchy, instead of reporting no session metrics.
	StrictServerType bool `koanf:"strict_server_type" yaml:"strict_server_type"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
