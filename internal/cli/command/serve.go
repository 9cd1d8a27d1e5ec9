package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sessgauge/internal/core/service"
	"github.com/yndnr/sessgauge/internal/infra/buildinfo"
	"github.com/yndnr/sessgauge/internal/infra/confloader"
	"github.com/yndnr/sessgauge/internal/infra/shutdown"
	"github.com/yndnr/sessgauge/internal/server/config"
	"github.com/yndnr/sessgauge/internal/server/httpserver"
	"github.com/yndnr/sessgauge/internal/storage"
	"github.com/yndnr/sessgauge/internal/telemetry/logger"
	"github.com/yndnr/sessgauge/internal/telemetry/metric"
)

// ServeCommand runs the server until a signal arrives.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the session server (default)",
		Flags:  globalFlags(),
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, loader, err := loadConfig(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(log)
	log.Info("starting sessgauge-server", "build", buildinfo.String(), "addr", cfg.Server.Addr)

	sh := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)

	srv, err := buildServer(c.Context, cfg, log, sh)
	if err != nil {
		_ = sh.Wait(canceled())
		return err
	}
	if err := srv.Start(c.Context); err != nil {
		_ = sh.Wait(canceled())
		return fmt.Errorf("start server: %w", err)
	}
	sh.OnShutdown("httpserver", srv.Shutdown)
	log.Info("server listening", "addr", srv.Addr())

	if path := loader.FilePath(); path != "" {
		if err := watchLogLevel(path, loader, log, sh); err != nil {
			log.Warn("config watcher disabled", "error", err)
		}
	}

	go func() {
		select {
		case err := <-srv.Errors():
			log.Error("server failed", "error", err)
			sh.Trigger("server error")
		case <-sh.Done():
		}
	}()

	return sh.Wait(c.Context)
}

// buildServer creates one session manager per configured context, deploys
// them on a new server and attaches the session metrics. Manager close hooks
// are registered on sh.
func buildServer(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger, sh *shutdown.Handler) (*httpserver.Server, error) {
	srv := httpserver.New(httpserver.Config{
		Addr:           cfg.Server.Addr,
		HostName:       cfg.Server.HostName,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		ExpiryInterval: cfg.Session.ExpiryInterval,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		Logger:         log,
	})

	for _, cc := range cfg.Contexts {
		m, err := newManager(ctx, cfg, cc, log)
		if err != nil {
			return nil, fmt.Errorf("context %s: %w", cc.Path, err)
		}
		sh.OnShutdown("manager "+cc.Path, func(context.Context) error { return m.Close() })
		if err := srv.Deploy(httpserver.NewContext(cc.Path, m)); err != nil {
			return nil, err
		}
	}

	opts := []metric.ReaderOption{metric.WithReaderLogger(log)}
	if cfg.Metrics.StrictServerType {
		opts = append(opts, metric.WithStrictServerType())
	}
	reader, err := metric.NewSessionReader(srv, opts...)
	if err != nil {
		return nil, err
	}
	srv.AddStatsSource(reader)

	if cfg.Metrics.Enabled {
		reg, err := metric.NewRegistry(metric.NewCollector(log, reader))
		if err != nil {
			return nil, fmt.Errorf("metrics registry: %w", err)
		}
		srv.UseMetrics(reg.Handler(), reg)
	}
	return srv, nil
}

func newManager(ctx context.Context, cfg *config.ServerConfig, cc config.ContextConfig, log *slog.Logger) (service.Manager, error) {
	opts := []service.Option{service.WithLogger(log)}
	if cc.MaxInactiveInterval != nil {
		opts = append(opts, service.WithMaxInactiveInterval(*cc.MaxInactiveInterval))
	}

	switch cc.Manager {
	case config.ManagerStandard:
		limit := cfg.Session.MaxActiveSessions
		if cc.MaxActiveSessions != nil {
			limit = *cc.MaxActiveSessions
		}
		return service.NewStandardManager(cc.Path, limit, opts...), nil

	case config.ManagerPersistent:
		store, err := storage.NewBadgerStore(storage.BadgerConfig{
			Dir:           cc.StorageDir(cfg.Storage.DataDir),
			InMemory:      cfg.Storage.InMemory,
			SyncWrites:    cfg.Storage.SyncWrites,
			GCInterval:    cfg.Storage.GCInterval,
			GCThreshold:   cfg.Storage.GCThreshold,
			EncryptionKey: cfg.Storage.EncryptionKey,
		}, log)
		if err != nil {
			return nil, err
		}
		m, err := service.NewPersistentManager(ctx, cc.Path, store, opts...)
		if err != nil {
			return nil, errors.Join(err, store.Close())
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown manager %q", cc.Manager)
}

// watchLogLevel reloads the configuration file on change and applies its
// log level. Other settings need a restart.
func watchLogLevel(path string, loader *confloader.Loader, log *slog.Logger, sh *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return err
	}
	w.OnChange(func(string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if err := logger.SetLevel(next.Log.Level); err != nil {
			log.Warn("ignoring log level", "level", next.Log.Level, "error", err)
			return
		}
		log.Info("log level updated", "level", logger.GetLevel())
	})
	w.StartAsync()
	sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	return nil
}

// canceled returns a done context, so Wait runs the registered hooks at once.
func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
