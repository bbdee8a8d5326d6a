// Copyright (c) 2026 GeoHistory. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the GeoHistory tour server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the events backend client.
//  4. Connect to Redis when a cache is configured.
//  5. Start the session registry and its idle reaper.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/geohistory/internal/api"
	"github.com/taibuivan/geohistory/internal/catalog"
	"github.com/taibuivan/geohistory/internal/explorer"
	"github.com/taibuivan/geohistory/internal/platform/config"
	"github.com/taibuivan/geohistory/internal/platform/constants"
	redisstore "github.com/taibuivan/geohistory/internal/platform/redis"
	"github.com/taibuivan/geohistory/internal/platform/sec"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("events_api", cfg.EventsAPIBase),
		slog.Bool("cache_enabled", cfg.CacheEnabled()),
	)

	// Lives until shutdown: rate limiter cleanup and the session reaper.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(appCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. Events Backend ─────────────────────────────────────────────────
	backend := catalog.NewHTTPRepository(cfg.EventsAPIBase, cfg.EventsAPITimeout, cfg.EventsAPIRPS)
	var repository catalog.Repository = backend

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.CacheEnabled() {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		repository = catalog.NewCachedRepository(backend, rdb, cfg.CacheTTL, log)
	}

	// ── 5. Sessions ───────────────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.SessionSecret, constants.AuthIssuer)
	must(log, err, "initialize session token service")

	language, _ := explorer.ParseLanguage(cfg.DefaultLanguage)
	settings := explorer.Settings{
		Debounce: cfg.FilterDebounce,
		Tour: explorer.TourState{
			SpeedMs: int(cfg.TourSpeed.Milliseconds()),
			Loop:    cfg.TourLoop,
		},
		Language:     language,
		VoiceEnabled: true,
	}

	registry := explorer.NewRegistry(repository, settings, cfg.SessionIdleTimeout, log)
	go registry.Run(appCtx)

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	dependencies := api.HealthDependencies{
		CheckBackend: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_, err := backend.ListOptions(ctx, catalog.Filters{})
			return err
		},
		ActiveSessions: registry.Len,
	}
	if rdb != nil {
		dependencies.CheckCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(dependencies, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Sessions:  explorer.NewHandler(registry, tokenService, cfg.SessionTokenTTL, language),
		Events:    catalog.NewHandler(repository),
	}

	server := api.NewServer(appCtx, cfg, log, tokenService, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Closing sessions first ends their streams, so Shutdown is not held
	// up by connected renderers.
	log.Info("closing_sessions", slog.Int("count", registry.Len()))
	registry.CloseAll()
	appCancel()

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
