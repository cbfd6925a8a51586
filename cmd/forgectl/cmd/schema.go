// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgebase/forge/cmd/forgectl/cmd/flags"
	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect a tenant's registered models",
	}
	cmd.AddCommand(schemaDescribeCmd())
	cmd.AddCommand(schemaDiffCmd())
	return cmd
}

// tenantMetabase resolves the Adapter for tenantID the same way
// internal/api.Resolver does — shared pool for postgres, a dedicated file
// under --tenant-data-dir for sqlite — and wraps it in a bus-less Metabase,
// since forgectl runs one-shot and has no cache to invalidate.
func tenantMetabase(ctx context.Context, tenantID string) (*metabase.Metabase, func() error, error) {
	systemDB, err := systemAdapter(ctx)
	if err != nil {
		return nil, nil, err
	}

	svc := tenant.New(systemDB)
	t, err := svc.Get(ctx, tenantID)
	if err != nil {
		systemDB.Close()
		return nil, nil, err
	}

	// Postgres tenants share the pool we just opened to read the catalog
	// row; sqlite tenants get their own file, so the catalog connection is
	// no longer needed.
	if t.Driver == sqladapter.SQLite {
		systemDB.Close()
		path := filepath.Join(flags.TenantDataDir(), t.ID+".db")
		dataAdapter, err := sqladapter.NewSQLite(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open tenant data file: %w", err)
		}
		return metabase.New(dataAdapter, nil, t.ID, cliLogger()), dataAdapter.Close, nil
	}

	return metabase.New(systemDB, nil, t.ID, cliLogger()), systemDB.Close, nil
}

func schemaDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <tenant-id> <model>",
		Short: "Print a model's current registered definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mb, closeAdapter, err := tenantMetabase(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeAdapter()

			model, err := mb.SelectOne(ctx, args[1])
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(model, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func schemaDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <tenant-id> <model> <definition-file>",
		Short: "Preview the DDL a new schema definition would require, without applying it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mb, closeAdapter, err := tenantMetabase(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeAdapter()

			raw, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read definition file: %w", err)
			}
			var def metabase.SchemaDefinition
			if err := json.Unmarshal(raw, &def); err != nil {
				return fmt.Errorf("parse definition file: %w", err)
			}

			plan, err := mb.DiffOne(ctx, args[1], def)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
