// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tenant manages the `tenants` registry row: the one piece of global,
cross-tenant state the system keeps, bootstrapped once by golang-migrate
alongside `schemas`/`columns` (internal/platform/database/schema). Every
other table — including `schemas` and `columns` themselves — lives inside
the tenant's own Adapter, selected by driver per Model.Driver; this package
never touches tenant data, only the catalog row that tells the rest of the
system which Adapter to open for a given tenant.
*/
package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/database/schema"
	"github.com/forgebase/forge/pkg/slug"
	uuidv7 "github.com/forgebase/forge/pkg/uuid"
)

// Model is one row of the `tenants` registry table.
type Model struct {
	ID        string
	Name      string
	Slug      string
	Driver    sqladapter.Driver
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Service manages the global tenant catalog. It is constructed once at
// startup against the system Adapter (the Postgres pool golang-migrate
// bootstrapped), never against a per-tenant Adapter.
type Service struct {
	adapter sqladapter.Adapter
}

// New builds a Service backed by the system Adapter.
func New(adapter sqladapter.Adapter) *Service {
	return &Service{adapter: adapter}
}

// sqliteBootstrapDDL creates the `tenants` table for an all-SQLite
// deployment, where golang-migrate (Postgres-only, see
// internal/platform/migration) never runs. Column types mirror
// migrations/0001_registry.up.sql, translated to SQLite's looser type
// affinities the way internal/core/metabase's DDL generator already does
// for per-model tables (driver-conditional type strings, not a dialect
// abstraction layer).
const sqliteBootstrapDDL = `CREATE TABLE IF NOT EXISTS tenants (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	driver TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	deleted_at TIMESTAMP
)`

// BootstrapSQLite creates the tenants table on a SQLite-backed system
// Adapter. It is a no-op if the table already exists. Called once at
// startup when config.Config selects the sqlite backend for the system
// registry itself.
func BootstrapSQLite(ctx context.Context, adapter sqladapter.Adapter) error {
	_, err := adapter.Query(ctx, sqliteBootstrapDDL)
	return err
}

// Create registers a new tenant. name is free text; slug is derived from it
// and must be unique among live tenants. driver picks which backend the
// resolver opens for this tenant's data (postgres: shared pool; sqlite: a
// dedicated file under config.TenantDataDir).
func (s *Service) Create(ctx context.Context, name string, driver sqladapter.Driver) (*Model, error) {
	if name == "" {
		return nil, apperr.BadRequest("TENANT_NAME_REQUIRED", "tenant name is required")
	}
	if driver != sqladapter.Postgres && driver != sqladapter.SQLite {
		return nil, apperr.BadRequest("TENANT_DRIVER_INVALID", "driver must be postgres or sqlite")
	}

	candidate := slug.From(name)
	if candidate == "" {
		return nil, apperr.BadRequest("TENANT_NAME_INVALID", "tenant name must contain at least one alphanumeric character")
	}

	existing, err := s.bySlug(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(fmt.Sprintf("tenant slug %q is already in use", candidate))
	}

	m := &Model{
		ID:     uuidv7.New(),
		Name:   name,
		Slug:   candidate,
		Driver: driver,
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, now(), now())`,
		sqladapter.QuoteIdentifier(schema.Tenant.Table),
		schema.Tenant.ID, schema.Tenant.Name, schema.Tenant.Slug, schema.Tenant.Driver,
		schema.Tenant.CreatedAt, schema.Tenant.UpdatedAt,
	)
	if _, err := s.adapter.Query(ctx, sql, m.ID, m.Name, m.Slug, string(m.Driver)); err != nil {
		return nil, err
	}
	return m, nil
}

// Get loads a live tenant by id.
func (s *Service) Get(ctx context.Context, id string) (*Model, error) {
	sql := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.Tenant.ID, schema.Tenant.Name, schema.Tenant.Slug, schema.Tenant.Driver,
		schema.Tenant.CreatedAt, schema.Tenant.UpdatedAt,
		sqladapter.QuoteIdentifier(schema.Tenant.Table), schema.Tenant.ID, schema.Tenant.DeletedAt,
	)
	result, err := s.adapter.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, apperr.NotFound("TENANT_NOT_FOUND", "tenant not found")
	}
	return scanModel(result.Rows[0])
}

// List returns every live tenant, ordered by creation time.
func (s *Service) List(ctx context.Context) ([]*Model, error) {
	sql := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s IS NULL ORDER BY %s`,
		schema.Tenant.ID, schema.Tenant.Name, schema.Tenant.Slug, schema.Tenant.Driver,
		schema.Tenant.CreatedAt, schema.Tenant.UpdatedAt,
		sqladapter.QuoteIdentifier(schema.Tenant.Table), schema.Tenant.DeletedAt, schema.Tenant.CreatedAt,
	)
	result, err := s.adapter.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	models := make([]*Model, 0, len(result.Rows))
	for _, row := range result.Rows {
		m, err := scanModel(row)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, nil
}

// Destroy soft-deletes a tenant atomically: the catalog row is marked
// deleted_at inside its own transaction, so a concurrent Get/List never
// observes a half-destroyed tenant. It does not drop the tenant's own data
// — for sqlite-backed tenants the resolver's cached Adapter (and its file)
// is left in place for an operator to archive or remove by hand.
func (s *Service) Destroy(ctx context.Context, id string) error {
	tx, err := s.adapter.Begin(ctx)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(
		`UPDATE %s SET %s = now() WHERE %s = $1 AND %s IS NULL`,
		sqladapter.QuoteIdentifier(schema.Tenant.Table), schema.Tenant.DeletedAt, schema.Tenant.ID, schema.Tenant.DeletedAt,
	)
	result, err := tx.Query(ctx, sql, id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if result.RowCount == 0 {
		_ = tx.Rollback(ctx)
		return apperr.NotFound("TENANT_NOT_FOUND", "tenant not found")
	}
	return tx.Commit(ctx)
}

func (s *Service) bySlug(ctx context.Context, slugValue string) (*Model, error) {
	sql := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.Tenant.ID, schema.Tenant.Name, schema.Tenant.Slug, schema.Tenant.Driver,
		schema.Tenant.CreatedAt, schema.Tenant.UpdatedAt,
		sqladapter.QuoteIdentifier(schema.Tenant.Table), schema.Tenant.Slug, schema.Tenant.DeletedAt,
	)
	result, err := s.adapter.Query(ctx, sql, slugValue)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, nil
	}
	m, err := scanModel(result.Rows[0])
	return m, err
}

func scanModel(row map[string]any) (*Model, error) {
	m := &Model{
		ID:     fmt.Sprint(row[schema.Tenant.ID]),
		Name:   fmt.Sprint(row[schema.Tenant.Name]),
		Slug:   fmt.Sprint(row[schema.Tenant.Slug]),
		Driver: sqladapter.Driver(fmt.Sprint(row[schema.Tenant.Driver])),
	}
	if ts, ok := row[schema.Tenant.CreatedAt].(time.Time); ok {
		m.CreatedAt = ts
	}
	if ts, ok := row[schema.Tenant.UpdatedAt].(time.Time); ok {
		m.UpdatedAt = ts
	}
	return m, nil
}
