// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the forgectl version, overridden at build time.
var Version = "development"

func init() {
	viper.SetEnvPrefix("FORGECTL")
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection string for the system registry")
	rootCmd.PersistentFlags().String("sql-adapter-driver", "postgres", "system registry backend: postgres or sqlite")
	rootCmd.PersistentFlags().String("tenant-data-dir", "./data/tenants", "filesystem root for sqlite-backed tenant data")
	rootCmd.PersistentFlags().String("migration-path", "./migrations", "filesystem path to the registry migrations directory")

	viper.BindPFlag("DATABASE_URL", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("SQL_ADAPTER_DRIVER", rootCmd.PersistentFlags().Lookup("sql-adapter-driver"))
	viper.BindPFlag("TENANT_DATA_DIR", rootCmd.PersistentFlags().Lookup("tenant-data-dir"))
	viper.BindPFlag("MIGRATION_PATH", rootCmd.PersistentFlags().Lookup("migration-path"))
}

var rootCmd = &cobra.Command{
	Use:          "forgectl",
	Short:        "Operator CLI for the Forge registry",
	SilenceUsage: true,
	Version:      Version,
}

// cliLogger is the structured logger shared by every subcommand.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(schemaCmd())

	return rootCmd.Execute()
}
