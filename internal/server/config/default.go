package config

import "time"

// Default configuration values.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultHostName        = "localhost"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRateLimit       = 100
	DefaultRateBurst       = 200

	DefaultMaxInactiveInterval = 30 * time.Minute
	DefaultExpiryInterval      = time.Minute
	DefaultMaxActiveSessions   = -1

	DefaultDataDir     = "/var/lib/sessgauge/data"
	DefaultGCInterval  = 10 * time.Minute
	DefaultGCThreshold = 0.5

	DefaultContextPath = "/app"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration. It has no contexts; Normalize
// adds DefaultContextPath when none is configured.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Addr:            DefaultAddr,
			HostName:        DefaultHostName,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			RateLimit:       DefaultRateLimit,
			RateBurst:       DefaultRateBurst,
		},
		Session: SessionSection{
			MaxInactiveInterval: DefaultMaxInactiveInterval,
			ExpiryInterval:      DefaultExpiryInterval,
			MaxActiveSessions:   DefaultMaxActiveSessions,
		},
		Storage: StorageSection{
			DataDir:     DefaultDataDir,
			GCInterval:  DefaultGCInterval,
			GCThreshold: DefaultGCThreshold,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Normalize fills per-context values from the session section and adds the
// default context when none is configured.
func Normalize(cfg *ServerConfig) {
	if len(cfg.Contexts) == 0 {
		cfg.Contexts = []ContextConfig{{Path: DefaultContextPath}}
	}
	for i := range cfg.Contexts {
		c := &cfg.Contexts[i]
		if c.Manager == "" {
			c.Manager = ManagerStandard
		}
		if c.MaxInactiveInterval == nil {
			d := cfg.Session.MaxInactiveInterval
			c.MaxInactiveInterval = &d
		}
		if c.Manager == ManagerStandard && c.MaxActiveSessions == nil {
			n := cfg.Session.MaxActiveSessions
			c.MaxActiveSessions = &n
		}
	}
}
