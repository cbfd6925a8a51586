// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (SQL adapter, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Forge API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// SQLAdapterDriver selects the SQL Adapter backend: "postgres" or "sqlite".
	SQLAdapterDriver string `env:"SQL_ADAPTER_DRIVER" envDefault:"postgres"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// TenantDataDir is the filesystem root for file-backed (SQLite) tenant
	// databases. Consulted only by the sqlite SQL Adapter and forgectl; not
	// referenced inside the core Metabase/Observer/Filter components.
	TenantDataDir string `env:"TENANT_DATA_DIR" envDefault:"./data/tenants"`

	// DataSourceDir is the filesystem location for file-backed fallback
	// sources (bulk import/export staging). Not consulted inside the core.
	DataSourceDir string `env:"DATA_SOURCE_DIR" envDefault:"./data/sources"`

	// MigrationPath is the filesystem path to the registry migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis) — backs cross-instance schema-cache invalidation.
	RedisURL string `env:"REDIS_URL"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`

	// AsyncObserverTimeoutSeconds overrides the default per-observer timeout
	// for rings 6-9 (post-commit, fire-and-forget).
	AsyncObserverTimeoutSeconds int `env:"ASYNC_OBSERVER_TIMEOUT_SECONDS" envDefault:"10"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsSQLite reports whether the configured SQL Adapter backend is SQLite.
func (c *Config) IsSQLite() bool {
	return c.SQLAdapterDriver == "sqlite"
}
