// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package flags centralizes the forgectl persistent flags, all bound
// through viper so FORGECTL_-prefixed environment variables work the same
// as flags (mirrors the server's env-driven internal/platform/config).
package flags

import "github.com/spf13/viper"

// DatabaseURL is the Postgres DSN for the system registry.
func DatabaseURL() string { return viper.GetString("DATABASE_URL") }

// SQLAdapterDriver selects the system registry backend: postgres or sqlite.
func SQLAdapterDriver() string { return viper.GetString("SQL_ADAPTER_DRIVER") }

// TenantDataDir is the filesystem root for sqlite-backed tenant data files.
func TenantDataDir() string { return viper.GetString("TENANT_DATA_DIR") }

// MigrationPath is the filesystem path to the registry migrations directory.
func MigrationPath() string { return viper.GetString("MIGRATION_PATH") }
