// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/forgebase/forge/cmd/forgectl/cmd/flags"
	"github.com/forgebase/forge/internal/platform/migration"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending registry migrations (Postgres-backed deployments only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.SQLAdapterDriver() == "sqlite" {
				return fmt.Errorf("migrate: sqlite-backed deployments bootstrap via tenant.BootstrapSQLite at server startup, not this command")
			}

			sp, _ := pterm.DefaultSpinner.WithText("Applying registry migrations...").Start()
			if err := migration.RunUp(flags.DatabaseURL(), flags.MigrationPath(), cliLogger()); err != nil {
				sp.Fail(fmt.Sprintf("migration failed: %s", err))
				return err
			}
			sp.Success("Registry is up to date")
			return nil
		},
	}
	return cmd
}
