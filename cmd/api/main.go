// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Api is the entry point for the Forge HTTP API server.

Forge turns user-defined JSON Schemas into live SQL tables, exposed over a
generic, multi-tenant CRUD/bulk/search surface.

Usage:

	go run cmd/api/main.go [flags]

The flags/environment variables are:

	SERVER_PORT        Port to listen on (default: 8080)
	ENVIRONMENT         deployment environment (development, production)
	SQL_ADAPTER_DRIVER  system registry backend: postgres or sqlite (default: postgres)
	DATABASE_URL        Postgres connection string (required in postgres mode)
	TENANT_DATA_DIR     filesystem root for sqlite-backed tenants
	REDIS_URL           Redis connection string (required)

Startup Sequence:

 1. Logger: Initialize structured JSON logging (slog).
 2. Config: Load and validate environment variables.
 3. Storage: Establish the system registry Adapter (Postgres pool or a
    dedicated SQLite file) and the Redis client.
 4. Migration: Run idempotent schema updates (Postgres mode only).
 5. Wiring: Inject dependencies into the tenant registry, resolver, and
    HTTP handlers.
 6. Server: Bind HTTP listener and handle graceful shutdown.

No business logic lives here. This file is strictly for orchestration and wiring.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/forgebase/forge/internal/api"
	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
	"github.com/forgebase/forge/internal/platform/cachebus"
	"github.com/forgebase/forge/internal/platform/config"
	"github.com/forgebase/forge/internal/platform/constants"
	"github.com/forgebase/forge/internal/platform/migration"
	pgstore "github.com/forgebase/forge/internal/platform/postgres"
	redisstore "github.com/forgebase/forge/internal/platform/redis"
	"github.com/forgebase/forge/internal/platform/sec"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application_startup_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// # 1. Logger
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries for trace correlation
	log := rawLog.With(slog.String("app", "forge"))
	slog.SetDefault(log)

	log.Info("forge_service_initializing")

	// # 2. Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Adjust log level if debug mode is explicitly enabled
	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "forge"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("sql_adapter_driver", cfg.SQLAdapterDriver),
	)

	// Root context for startup. A 30s deadline prevents the app from hanging.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// # 3. System registry Adapter
	// The tenants/schemas/columns bootstrap tables live here regardless of
	// which driver individual tenants end up using for their own data.
	var systemAdapter sqladapter.Adapter
	var checkDatabase func() error

	if cfg.IsSQLite() {
		path := filepath.Join(cfg.TenantDataDir, "_system.db")
		systemAdapter, err = sqladapter.NewSQLite(path)
		if err != nil {
			return fmt.Errorf("open sqlite system registry: %w", err)
		}
		if err := tenant.BootstrapSQLite(startupCtx, systemAdapter); err != nil {
			return fmt.Errorf("bootstrap sqlite system registry: %w", err)
		}
		checkDatabase = func() error { return systemAdapter.Ping(context.Background()) }
	} else {
		pool, poolErr := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		if poolErr != nil {
			return fmt.Errorf("connect to postgres: %w", poolErr)
		}
		defer func() {
			log.Info("closing postgres pool")
			pool.Close()
		}()

		// # 4. Migrations (Postgres mode only)
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		systemAdapter = sqladapter.NewPostgres(pool)
		checkDatabase = func() error { return pgstore.Ping(context.Background(), pool) }
	}
	defer func() {
		if err := systemAdapter.Close(); err != nil {
			log.Error("system_adapter_close_failed", slog.Any("error", err))
		}
	}()

	// # 5. Redis
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// # 6. Platform Services
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("initialize jwt service: %w", err)
	}

	// # 7. Health Wiring
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: checkDatabase,
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// # 8. Domain Wiring
	bus := cachebus.New(rdb, log)
	tenantSvc := tenant.New(systemAdapter)
	pipeline := observer.New(log)
	observer.RegisterDefaults(pipeline)
	resolver := api.NewResolver(cfg, tenantSvc, bus, pipeline, systemAdapter, log)

	// # 9. Handler Assembly
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Tenant:    api.NewTenantHandler(tenantSvc, resolver),
		Meta:      api.NewMetaHandler(resolver),
		Data:      api.NewDataHandler(resolver),
	}

	// Create a background context for the whole application lifecycle
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	server := api.NewServer(appCtx, cfg, log, jwtSvc, handlers)

	// # 10. Lifecycle Handling
	shutdownErr := make(chan error, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdownErr <- fmt.Errorf("http_server_crash: %w", err)
		}
	}()

	log.Info("forge_api_running", slog.String("port", cfg.ServerPort))

	// Block until signal or error
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-shutdownErr:
		return err
	}

	// Start Graceful Shutdown Sequence
	appCancel() // Signal background workers to stop

	log.Info("shutting_down_api_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		return fmt.Errorf("server_shutdown_failed: %w", err)
	}

	log.Info("graceful_shutdown_complete")
	return nil
}
