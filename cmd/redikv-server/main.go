package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redikv/internal/core/role"
	"github.com/yndnr/redikv/internal/infra/buildinfo"
	"github.com/yndnr/redikv/internal/infra/confloader"
	"github.com/yndnr/redikv/internal/infra/shutdown"
	"github.com/yndnr/redikv/internal/replication"
	"github.com/yndnr/redikv/internal/server/config"
	"github.com/yndnr/redikv/internal/server/httpserver"
	"github.com/yndnr/redikv/internal/server/redisserver"
	"github.com/yndnr/redikv/internal/storage/memory"
	"github.com/yndnr/redikv/internal/storage/snapshot"
	"github.com/yndnr/redikv/internal/telemetry/logger"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "redikv-server",
		Usage:   "Redis-compatible in-memory key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"REDIKV_CONFIG"},
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "client listener port",
			},
			&cli.StringFlag{
				Name:  "replicaof",
				Usage: `follow a primary, given as "<host> <port>"`,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.String("config"), flagOverrides(c))
		},
	}
}

// flagOverrides maps explicitly set flags to configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("port") {
		overrides["server.port"] = c.Int("port")
	}
	if c.IsSet("replicaof") {
		overrides["replication.replicaof"] = c.String("replicaof")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	return overrides
}

func run(configFile string, overrides map[string]any) error {
	loader := newLoader(configFile, overrides)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	r, err := config.ToRole(cfg)
	if err != nil {
		return err
	}
	state := role.NewState(r)

	log.Info("starting redikv-server",
		"version", buildinfo.String(),
		"config", configFile,
		"role", r.Name(),
	)

	metrics := metric.NewRegistry()
	store := memory.New(memory.WithObserver(metrics))
	metrics.MustRegister(metric.NewKeyspaceCollector(store.Len))

	format, err := snapshot.ParseFormat(cfg.Replication.SnapshotFormat)
	if err != nil {
		return err
	}
	responder := replication.NewResponder(state, snapshot.NewBuilder(format, store), metrics)
	handler := redisserver.NewHandler(store, state, responder, metrics)

	sh := shutdown.NewHandler(shutdownTimeout, log)
	ctx := sh.Context()

	addr := net.JoinHostPort(cfg.Server.Bind, strconv.Itoa(cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := redisserver.New(redisserver.Config{
		Addr:           addr,
		ReadBufferSize: cfg.Server.ReadBufferSize,
		MaxFrameSize:   cfg.Server.MaxFrameSize,
		RateLimit:      cfg.Server.RateLimit,
	}, handler, metrics, log)
	go func() {
		if err := srv.Serve(ctx, ln); err != nil {
			log.Error("RESP server error", "error", err)
			sh.Trigger("resp server failed")
		}
	}()
	sh.OnShutdown("resp server", srv.Shutdown)

	if cfg.Metrics.Enabled {
		adminLn, err := net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("listen %s: %w", cfg.Metrics.Addr, err)
		}
		admin := httpserver.New(cfg.Metrics.Addr, httpserver.NewRouter(&httpserver.RouterConfig{
			State:   state,
			Metrics: metrics,
			Logger:  log,
		}), log)
		go func() {
			log.Info("admin HTTP server listening", "addr", adminLn.Addr().String())
			if err := admin.Serve(adminLn); err != nil {
				log.Error("admin HTTP server error", "error", err)
			}
		}()
		sh.OnShutdown("admin http server", admin.Shutdown)
	}

	if loader.FilePath() != "" {
		if stop, err := watchConfig(loader, log); err != nil {
			log.Warn("config reload disabled", "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error { return stop() })
		}
	}

	if replica, ok := r.(role.Replica); ok {
		client := replication.NewClient(replication.ClientConfig{
			Replica:          replica,
			HandshakeTimeout: cfg.Replication.HandshakeTimeout,
		}, state, store, metrics, log)
		go func() {
			if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("replication handshake failed", "error", err)
			}
		}()
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func newLoader(configFile string, overrides map[string]any) *confloader.Loader {
	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)
	loader.SetOverrides(overrides)
	return loader
}

// loadConfig reads every source into a fresh default configuration and
// validates the result.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	cfg = config.Sanitize(cfg)
	if err := config.Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// watchConfig reloads the configuration file on change and applies the
// settings that can change at runtime. Only log.level is applied; other
// changes need a restart.
func watchConfig(loader *confloader.Loader, log *slog.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(loader.FilePath()); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(path string) {
		cfg, err := loadConfig(loader)
		if err != nil {
			log.Warn("ignoring invalid configuration", "file", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("configuration reloaded", "file", path, "log_level", logger.GetLevel())
	})
	w.StartAsync()
	return w.Stop, nil
}
