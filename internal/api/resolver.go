// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/forgebase/forge/internal/core/database"
	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
	"github.com/forgebase/forge/internal/platform/cachebus"
	"github.com/forgebase/forge/internal/platform/config"
)

// sqliteRegistryDDL bootstraps the `schemas`/`columns` registry tables for a
// single-file SQLite tenant, one CREATE TABLE per entry since the adapter's
// single-statement Query cannot run a semicolon-separated batch. Postgres
// tenants get these tables from migrations/0001_registry.up.sql instead
// (golang-migrate runs once, against the shared pool, before the server
// starts accepting traffic); SQLite tenants are opened lazily, one file per
// tenant, so the resolver bootstraps each file's own registry tables the
// first time it opens it.
var sqliteRegistryDDL = []string{
	`CREATE TABLE IF NOT EXISTS schemas (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	table_name TEXT NOT NULL,
	status TEXT NOT NULL,
	definition TEXT NOT NULL,
	field_count INTEGER NOT NULL DEFAULT 0,
	json_checksum TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	trashed_at TIMESTAMP,
	deleted_at TIMESTAMP,
	access_read TEXT,
	access_edit TEXT,
	access_full TEXT,
	access_deny TEXT
)`,
	`CREATE TABLE IF NOT EXISTS columns (
	id TEXT PRIMARY KEY,
	schema_name TEXT NOT NULL REFERENCES schemas(name),
	column_name TEXT NOT NULL,
	pg_type TEXT NOT NULL,
	is_required BOOLEAN NOT NULL DEFAULT false,
	default_value TEXT,
	relationship_type TEXT,
	related_schema TEXT,
	related_column TEXT,
	relationship_name TEXT,
	cascade_delete BOOLEAN NOT NULL DEFAULT false,
	required_relationship BOOLEAN NOT NULL DEFAULT false,
	minimum REAL,
	maximum REAL,
	pattern_regex TEXT,
	enum_values TEXT,
	is_array BOOLEAN NOT NULL DEFAULT false,
	description TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	access_read TEXT,
	access_edit TEXT,
	access_full TEXT,
	access_deny TEXT,
	UNIQUE (schema_name, column_name)
)`,
}

// tenantServices is the per-tenant trio every data/meta request is served
// through: one Metabase bound to that tenant's registry, one Database
// Service façade over it, sharing one Observer Pipeline instance (the
// Pipeline itself carries no tenant-scoped state — it only dispatches
// registered observers — so it is safe to share across tenants).
type tenantServices struct {
	metabase *metabase.Metabase
	database *database.Service
}

// Resolver lazily constructs and caches the services a tenant's requests
// are served through.
//
// Postgres mode: every tenant shares the one Adapter wrapping the system
// pool (internal/platform/postgres's package doc records this as the
// existing architectural decision — logical, not physical, isolation;
// Metabase's tenantID argument only namespaces its cachebus channel).
//
// SQLite mode: each tenant gets a dedicated Adapter opened against its own
// file under config.TenantDataDir — genuine physical isolation, the one
// case config.TenantDataDir documents itself for.
type Resolver struct {
	cfg        *config.Config
	tenants    *tenant.Service
	bus        *cachebus.Bus
	pipeline   *observer.Pipeline
	logger     *slog.Logger
	systemPool sqladapter.Adapter // Postgres mode only; nil in sqlite mode

	mu       sync.Mutex
	cache    map[string]*tenantServices
	adapters map[string]sqladapter.Adapter // sqlite mode only, so files stay open across requests
}

// NewResolver builds a Resolver. systemPool is the Adapter golang-migrate
// bootstrapped at startup; it is reused directly for every tenant in
// Postgres mode and ignored in SQLite mode.
func NewResolver(cfg *config.Config, tenants *tenant.Service, bus *cachebus.Bus, pipeline *observer.Pipeline, systemPool sqladapter.Adapter, logger *slog.Logger) *Resolver {
	return &Resolver{
		cfg:        cfg,
		tenants:    tenants,
		bus:        bus,
		pipeline:   pipeline,
		logger:     logger,
		systemPool: systemPool,
		cache:      make(map[string]*tenantServices),
		adapters:   make(map[string]sqladapter.Adapter),
	}
}

// Resolve returns the Metabase/Database pair for tenantID, building and
// caching them on first use.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*metabase.Metabase, *database.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.cache[tenantID]; ok {
		return svc.metabase, svc.database, nil
	}

	t, err := r.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}

	adapter, err := r.adapterFor(t)
	if err != nil {
		return nil, nil, err
	}

	meta := metabase.New(adapter, r.bus, t.ID, r.logger)
	db := database.New(adapter, r.pipeline, meta, t.ID, r.logger)

	r.cache[tenantID] = &tenantServices{metabase: meta, database: db}
	return meta, db, nil
}

// adapterFor returns the Adapter backing t's data, opening and bootstrapping
// a new SQLite file on first use. Postgres tenants all return the same
// shared systemPool.
func (r *Resolver) adapterFor(t *tenant.Model) (sqladapter.Adapter, error) {
	if t.Driver == sqladapter.Postgres {
		return r.systemPool, nil
	}

	if adapter, ok := r.adapters[t.ID]; ok {
		return adapter, nil
	}

	path := filepath.Join(r.cfg.TenantDataDir, t.ID+".db")
	adapter, err := sqladapter.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("resolver: opening sqlite tenant %s: %w", t.ID, err)
	}
	for _, stmt := range sqliteRegistryDDL {
		if _, err := adapter.Query(context.Background(), stmt); err != nil {
			_ = adapter.Close()
			return nil, fmt.Errorf("resolver: bootstrapping sqlite registry for tenant %s: %w", t.ID, err)
		}
	}

	r.adapters[t.ID] = adapter
	return adapter, nil
}

// InvalidateTenant drops tenantID's cached services, forcing the next
// Resolve to rebuild them. Used after a tenant is destroyed.
func (r *Resolver) InvalidateTenant(tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, tenantID)
}
