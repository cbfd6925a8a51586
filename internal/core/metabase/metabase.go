// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/database/schema"
)

// Metabase owns one tenant's registry (the `schemas`/`columns` tables) and
// mediates every DDL change applied against that tenant's physical tables
// (§4.3). It memoizes parsed Models in-process and invalidates that cache,
// locally and cross-instance, through cachebus whenever a model changes.
type Metabase struct {
	adapter  sqladapter.Adapter
	bus      cacheBusPublisher
	tenantID string
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string]*Model
}

// cacheBusPublisher is the slice of cachebus.Bus that Metabase depends on —
// kept as an interface so tests can stub it without a live Redis connection.
type cacheBusPublisher interface {
	Publish(ctx context.Context, tenantID, model string) error
}

// New constructs a Metabase bound to one tenant's Adapter.
func New(adapter sqladapter.Adapter, bus cacheBusPublisher, tenantID string, logger *slog.Logger) *Metabase {
	return &Metabase{
		adapter:  adapter,
		bus:      bus,
		tenantID: tenantID,
		logger:   logger,
		cache:    make(map[string]*Model),
	}
}

// protected reports whether name is one of the registry's own reserved
// table names (§4.3 invariant b).
func protected(name string) bool {
	for _, reserved := range schema.ProtectedNames() {
		if reserved == name {
			return true
		}
	}
	return false
}

// InvalidateLocal drops name from the in-process cache. Wired as the
// callback cachebus.Bus.Subscribe invokes when another instance mutates a
// model this process has already cached.
func (mb *Metabase) InvalidateLocal(name string) {
	mb.mu.Lock()
	delete(mb.cache, name)
	mb.mu.Unlock()
}

func (mb *Metabase) invalidate(ctx context.Context, name string) {
	mb.InvalidateLocal(name)
	if mb.bus == nil {
		return
	}
	if err := mb.bus.Publish(ctx, mb.tenantID, name); err != nil && mb.logger != nil {
		mb.logger.Error("metabase_cache_invalidation_publish_failed",
			slog.String("model", name), slog.Any("error", err))
	}
}

// SelectOne returns the live Model registered under name, serving from the
// in-process cache when present.
func (mb *Metabase) SelectOne(ctx context.Context, name string) (*Model, error) {
	mb.mu.RLock()
	if cached, ok := mb.cache[name]; ok {
		mb.mu.RUnlock()
		return cached, nil
	}
	mb.mu.RUnlock()

	m, err := selectSchemaRow(ctx, mb.adapter, name)
	if err != nil {
		return nil, err
	}
	if m.TrashedAt != nil {
		return nil, errSchemaNotFound(name)
	}

	columns, err := selectColumnRows(ctx, mb.adapter, name)
	if err != nil {
		return nil, err
	}
	if err := mb.attachValidator(m, columns); err != nil {
		return nil, err
	}

	mb.mu.Lock()
	mb.cache[name] = m
	mb.mu.Unlock()
	return m, nil
}

func (mb *Metabase) attachValidator(m *Model, _ []ColumnRecord) error {
	compiled, err := compileValidator(m.Name, m.Definition)
	if err != nil {
		return err
	}
	m.compiled = compiled
	return nil
}

// CreateOne registers a new model, compiles it to a CREATE TABLE statement,
// and executes the DDL plus the registry inserts inside a single
// transaction (§4.1 ring 5, applied here directly since model registration
// itself is not an Observer-Pipeline operation).
func (mb *Metabase) CreateOne(ctx context.Context, name string, def SchemaDefinition, isSudo bool) (*Model, error) {
	if protected(name) {
		return nil, errProtectedModel(name)
	}
	if _, err := selectSchemaRow(ctx, mb.adapter, name); err == nil {
		return nil, &apperr.AppError{
			Code:       "SCHEMA_ALREADY_EXISTS",
			Message:    fmt.Sprintf("model %q already exists", name),
			HTTPStatus: http.StatusConflict,
		}
	}

	tableName := def.Table
	if tableName == "" {
		tableName = name
	}

	plan, err := buildCreateTablePlan(mb.adapter.Type(), tableName, def, mb.logger)
	if err != nil {
		return nil, err
	}

	sum, err := checksum(def)
	if err != nil {
		return nil, err
	}

	m := &Model{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Name:       name,
		TableName:  tableName,
		Status:     StatusActive,
		Definition: def,
		FieldCount: len(plan.Columns),
		Checksum:   sum,
	}

	tx, err := mb.adapter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := mb.runCreateTx(ctx, tx, plan, m); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if err := mb.attachValidator(m, plan.Columns); err != nil {
		return nil, err
	}
	mb.mu.Lock()
	mb.cache[name] = m
	mb.mu.Unlock()

	return m, nil
}

func (mb *Metabase) runCreateTx(ctx context.Context, tx sqladapter.Tx, plan *plan, m *Model) error {
	if _, err := tx.Query(ctx, plan.CreateTableSQL); err != nil {
		return err
	}
	for _, constraint := range plan.ConstraintSQL {
		if _, err := tx.Query(ctx, constraint); err != nil {
			return err
		}
	}
	if err := insertSchemaRow(ctx, tx, m); err != nil {
		return err
	}
	return insertColumnRows(ctx, tx, m.Name, plan.Columns)
}

// DiffOne previews the add/drop-column plan UpdateOne would apply, without
// mutating anything (SPEC_FULL supplement to §4.3).
func (mb *Metabase) DiffOne(ctx context.Context, name string, def SchemaDefinition) (*DiffPlan, error) {
	m, err := mb.SelectOne(ctx, name)
	if err != nil {
		return nil, err
	}
	existing, err := selectColumnRows(ctx, mb.adapter, name)
	if err != nil {
		return nil, err
	}
	return computeDiff(mb.adapter.Type(), m.TableName, existing, def, mb.logger)
}

// UpdateOne applies an additive/subtractive column diff for an existing
// model and rewrites its registry definition. A system model requires
// isSudo (§4.3 invariant e).
func (mb *Metabase) UpdateOne(ctx context.Context, name string, def SchemaDefinition, isSudo bool) (*Model, error) {
	if protected(name) {
		return nil, errProtectedModel(name)
	}
	m, err := mb.SelectOne(ctx, name)
	if err != nil {
		return nil, err
	}
	if m.Status == StatusSystem && !isSudo {
		return nil, errRequiresSudo(name)
	}

	existing, err := selectColumnRows(ctx, mb.adapter, name)
	if err != nil {
		return nil, err
	}
	diff, err := computeDiff(mb.adapter.Type(), m.TableName, existing, def, mb.logger)
	if err != nil {
		return nil, err
	}

	sum, err := checksum(def)
	if err != nil {
		return nil, err
	}
	fieldCount := len(existing) - len(diff.DropColumns) + len(diff.AddColumns)

	tx, err := mb.adapter.Begin(ctx)
	if err != nil {
		return nil, err
	}
	if err := mb.runUpdateTx(ctx, tx, name, diff, def, fieldCount, sum); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	mb.invalidate(ctx, name)
	return mb.SelectOne(ctx, name)
}

func (mb *Metabase) runUpdateTx(ctx context.Context, tx sqladapter.Tx, name string, diff *DiffPlan, def SchemaDefinition, fieldCount int, sum string) error {
	for _, stmt := range diff.AlterSQL {
		if _, err := tx.Query(ctx, stmt); err != nil {
			return err
		}
	}
	for _, col := range diff.DropColumns {
		if _, err := tx.Query(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2",
				sqladapter.QuoteIdentifier(schema.Column.Table), schema.Column.SchemaName, schema.Column.ColumnName),
			name, col); err != nil {
			return err
		}
	}
	if len(diff.AddColumns) > 0 {
		if err := insertColumnRows(ctx, tx, name, diff.AddColumns); err != nil {
			return err
		}
	}
	return touchSchemaRow(ctx, tx, name, def, fieldCount, sum)
}

// DeleteOne soft-deletes the registry row for name (sets trashed_at). The
// physical table and its data are never dropped (§4.3). RevertOne is
// reserved and does not bring a trashed model back.
func (mb *Metabase) DeleteOne(ctx context.Context, name string, isSudo bool) error {
	if protected(name) {
		return errProtectedModel(name)
	}
	m, err := mb.SelectOne(ctx, name)
	if err != nil {
		return err
	}
	if m.Status == StatusSystem && !isSudo {
		return errRequiresSudo(name)
	}

	if err := trashSchemaRow(ctx, mb.adapter, name); err != nil {
		return err
	}
	mb.invalidate(ctx, name)
	return nil
}

// RevertOne is reserved: reverting a trashed model definition back to live
// is not implemented in this revision (§4.3).
func (mb *Metabase) RevertOne(_ context.Context, _ string) error {
	return errNotImplemented("revertOne")
}
