package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/sessgauge/internal/telemetry/logger"
)

// Paths the server serves itself.
var reservedPaths = []string{"/health", "/ready", "/metrics", "/admin"}

// Verify validates a normalized configuration. Directories for persistent
// contexts are created.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifySession(&cfg.Session); err != nil {
		return err
	}
	if err := verifyContexts(cfg.Contexts); err != nil {
		return err
	}
	if hasPersistent(cfg.Contexts) {
		if err := verifyStorage(&cfg.Storage); err != nil {
			return err
		}
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 || cfg.ShutdownTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.MaxInactiveInterval < 0 {
		return errors.New("session.max_inactive_interval must not be negative")
	}
	if cfg.ExpiryInterval < 0 {
		return errors.New("session.expiry_interval must not be negative")
	}
	if cfg.MaxActiveSessions < -1 {
		return errors.New("session.max_active_sessions must be -1 (unlimited) or more")
	}
	return nil
}

func verifyContexts(contexts []ContextConfig) error {
	seen := make(map[string]struct{}, len(contexts))
	for i, c := range contexts {
		field := fmt.Sprintf("contexts[%d]", i)

		if !strings.HasPrefix(c.Path, "/") || strings.Trim(c.Path, "/") == "" {
			return fmt.Errorf("%s.path must be an absolute non-root path, got %q", field, c.Path)
		}
		path := "/" + strings.Trim(c.Path, "/")
		for _, r := range reservedPaths {
			if path == r || strings.HasPrefix(path, r+"/") {
				return fmt.Errorf("%s.path %s is reserved", field, path)
			}
		}
		if _, dup := seen[path]; dup {
			return fmt.Errorf("%s.path %s is configured twice", field, path)
		}
		seen[path] = struct{}{}

		switch c.Manager {
		case ManagerStandard:
			if c.MaxActiveSessions != nil && *c.MaxActiveSessions < -1 {
				return fmt.Errorf("%s.max_active_sessions must be -1 (unlimited) or more", field)
			}
		case ManagerPersistent:
			if c.MaxActiveSessions != nil {
				return fmt.Errorf("%s.max_active_sessions is not supported by persistent contexts", field)
			}
		default:
			return fmt.Errorf("%s.manager must be %q or %q, got %q", field, ManagerStandard, ManagerPersistent, c.Manager)
		}

		if c.MaxInactiveInterval != nil && *c.MaxInactiveInterval < 0 {
			return fmt.Errorf("%s.max_inactive_interval must not be negative", field)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch len(cfg.EncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return errors.New("storage.encryption_key must be 16, 24 or 32 bytes")
	}
	if cfg.GCThreshold < 0 || cfg.GCThreshold >= 1 {
		return errors.New("storage.gc_threshold must be in [0, 1)")
	}
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required for persistent contexts")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	return nil
}

func hasPersistent(contexts []ContextConfig) bool {
	for _, c := range contexts {
		if c.Manager == ManagerPersistent {
			return true
		}
	}
	return false
}
