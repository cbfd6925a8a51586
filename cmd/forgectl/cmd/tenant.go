// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
)

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage the tenant catalog",
	}
	cmd.AddCommand(tenantCreateCmd())
	cmd.AddCommand(tenantListCmd())
	cmd.AddCommand(tenantDestroyCmd())
	return cmd
}

func tenantCreateCmd() *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			adapter, err := systemAdapter(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()

			sp, _ := pterm.DefaultSpinner.WithText("Creating tenant...").Start()
			svc := tenant.New(adapter)
			t, err := svc.Create(ctx, args[0], sqladapter.Driver(driver))
			if err != nil {
				sp.Fail(fmt.Sprintf("Failed to create tenant: %s", err))
				return err
			}
			sp.Success(fmt.Sprintf("Tenant %q created (id=%s, slug=%s)", t.Name, t.ID, t.Slug))
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "postgres", "backend for the tenant's own data: postgres or sqlite")
	return cmd
}

func tenantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live tenants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			adapter, err := systemAdapter(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()

			svc := tenant.New(adapter)
			tenants, err := svc.List(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(tenants, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func tenantDestroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <id>",
		Short: "Soft-delete a tenant from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			adapter, err := systemAdapter(ctx)
			if err != nil {
				return err
			}
			defer adapter.Close()

			sp, _ := pterm.DefaultSpinner.WithText("Destroying tenant...").Start()
			svc := tenant.New(adapter)
			if err := svc.Destroy(ctx, args[0]); err != nil {
				sp.Fail(fmt.Sprintf("Failed to destroy tenant: %s", err))
				return err
			}
			sp.Success("Tenant destroyed")
			return nil
		},
	}
}
