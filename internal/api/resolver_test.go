// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
	"github.com/forgebase/forge/internal/platform/config"
)

type fakeCatalogAdapter struct {
	statements []string
	selectRows []map[string]any
}

func (f *fakeCatalogAdapter) Query(_ context.Context, sql string, _ ...any) (*sqladapter.Result, error) {
	f.statements = append(f.statements, sql)
	if strings.HasPrefix(strings.TrimSpace(sql), "SELECT") {
		rows := f.selectRows
		f.selectRows = nil
		return &sqladapter.Result{Rows: rows}, nil
	}
	return &sqladapter.Result{RowCount: 1}, nil
}

func (f *fakeCatalogAdapter) Begin(context.Context) (sqladapter.Tx, error) { return nil, nil }
func (f *fakeCatalogAdapter) Type() sqladapter.Driver                      { return sqladapter.Postgres }
func (f *fakeCatalogAdapter) Ping(context.Context) error                   { return nil }
func (f *fakeCatalogAdapter) Close() error                                 { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(catalog *fakeCatalogAdapter, systemPool sqladapter.Adapter, cfg *config.Config) *Resolver {
	tenants := tenant.New(catalog)
	pipeline := observer.New(discardLogger())
	observer.RegisterDefaults(pipeline)
	return NewResolver(cfg, tenants, nil, pipeline, systemPool, discardLogger())
}

func TestResolve_PostgresTenantUsesSharedPool(t *testing.T) {
	catalog := &fakeCatalogAdapter{selectRows: []map[string]any{
		{"id": "tenant-1", "name": "Acme", "slug": "acme", "driver": "postgres"},
	}}
	systemPool := &fakeCatalogAdapter{}
	resolver := newTestResolver(catalog, systemPool, &config.Config{})

	meta, db, err := resolver.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if meta == nil || db == nil {
		t.Fatal("expected non-nil metabase and database services")
	}
}

func TestResolve_CachesAcrossCalls(t *testing.T) {
	catalog := &fakeCatalogAdapter{selectRows: []map[string]any{
		{"id": "tenant-1", "name": "Acme", "slug": "acme", "driver": "postgres"},
	}}
	resolver := newTestResolver(catalog, &fakeCatalogAdapter{}, &config.Config{})

	meta1, db1, err := resolver.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	meta2, db2, err := resolver.Resolve(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if meta1 != meta2 || db1 != db2 {
		t.Fatal("expected the cached Metabase/Database pair to be returned on a second Resolve")
	}
	if len(catalog.statements) != 1 {
		t.Fatalf("expected exactly one catalog lookup, got %d", len(catalog.statements))
	}
}

func TestInvalidateTenant_ForcesRebuild(t *testing.T) {
	catalog := &fakeCatalogAdapter{selectRows: []map[string]any{
		{"id": "tenant-1", "name": "Acme", "slug": "acme", "driver": "postgres"},
	}}
	resolver := newTestResolver(catalog, &fakeCatalogAdapter{}, &config.Config{})

	if _, _, err := resolver.Resolve(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}

	resolver.InvalidateTenant("tenant-1")

	// The catalog's single-use selectRows was already consumed, so a
	// forced rebuild now sees no row and must fail instead of silently
	// reusing the evicted cache entry.
	if _, _, err := resolver.Resolve(context.Background(), "tenant-1"); err == nil {
		t.Fatal("expected Resolve to rebuild (and fail) after InvalidateTenant")
	}
}

func TestAdapterFor_SQLiteOpensAndCachesDedicatedFile(t *testing.T) {
	cfg := &config.Config{TenantDataDir: t.TempDir()}
	resolver := newTestResolver(&fakeCatalogAdapter{}, &fakeCatalogAdapter{}, cfg)

	model := &tenant.Model{ID: "tenant-sqlite", Driver: sqladapter.SQLite}

	first, err := resolver.adapterFor(model)
	if err != nil {
		t.Fatalf("adapterFor: %v", err)
	}
	defer first.Close()

	if _, statErr := filepath.Abs(filepath.Join(cfg.TenantDataDir, model.ID+".db")); statErr != nil {
		t.Fatalf("expected a resolvable db file path: %v", statErr)
	}

	second, err := resolver.adapterFor(model)
	if err != nil {
		t.Fatalf("adapterFor (cached): %v", err)
	}
	if first != second {
		t.Fatal("expected the second adapterFor call to return the cached sqlite adapter")
	}
}
