// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/forgebase/forge/cmd/forgectl/cmd/flags"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
	pgstore "github.com/forgebase/forge/internal/platform/postgres"
)

// systemAdapter opens the registry Adapter selected by --sql-adapter-driver,
// mirroring cmd/api/main.go's startup branch but without owning a server
// lifecycle: the caller is responsible for closing the returned Adapter.
func systemAdapter(ctx context.Context) (sqladapter.Adapter, error) {
	logger := cliLogger()

	if flags.SQLAdapterDriver() == "sqlite" {
		path := filepath.Join(flags.TenantDataDir(), "_system.db")
		adapter, err := sqladapter.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite system registry: %w", err)
		}
		if err := tenant.BootstrapSQLite(ctx, adapter); err != nil {
			return nil, fmt.Errorf("bootstrap sqlite system registry: %w", err)
		}
		return adapter, nil
	}

	dsn := flags.DatabaseURL()
	if dsn == "" {
		return nil, fmt.Errorf("--database-url is required when --sql-adapter-driver=postgres")
	}

	pool, err := pgstore.NewPool(ctx, dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return sqladapter.NewPostgres(pool), nil
}
