// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/constants"
)

// RegisterDefaults wires the built-in observer for every ring the pipeline
// cannot function without (0, 1, 2, 4, 5), plus pass-through observers on
// rings 7, 8 and 9 (audit, integration, notification). Rings 3 and 6 get no
// observer; a deployment registers its own business rules or post-database
// hooks there.
func RegisterDefaults(p *Pipeline) {
	p.Register(&Observer{Name: "data-preparation", Ring: constants.RingDataPreparation, Run: dataPreparation})
	p.Register(&Observer{Name: "input-validation", Ring: constants.RingInputValidation, Run: inputValidation})
	p.Register(&Observer{Name: "security", Ring: constants.RingSecurity, Run: security})
	p.Register(&Observer{Name: "enrichment", Ring: constants.RingEnrichment, Run: enrichment})
	p.Register(&Observer{Name: "database", Ring: constants.RingDatabase, Run: database})

	p.Register(&Observer{Name: "audit-noop", Ring: constants.RingAudit, Run: noop})
	p.Register(&Observer{Name: "integration-noop", Ring: constants.RingIntegration, Run: noop})
	p.Register(&Observer{Name: "notification-noop", Ring: constants.RingNotification, Run: noop})
}

func noop(context.Context, *Context) error { return nil }

var accessColumns = []string{
	constants.ColumnAccessRead, constants.ColumnAccessEdit,
	constants.ColumnAccessFull, constants.ColumnAccessDeny,
}

// dataPreparation is ring 0: system-field stamping for create, and
// pre-image materialization by ID for every other operation (§4.4).
func dataPreparation(ctx context.Context, octx *Context) error {
	now := time.Now().UTC()

	if octx.Operation == constants.OpCreate {
		for _, rec := range octx.Batch {
			rec[constants.ColumnCreatedAt] = now
			rec[constants.ColumnUpdatedAt] = now
		}
		return nil
	}

	ids := octx.IDs()
	if len(ids) == 0 {
		return apperr.BadRequest("OPERATION_MISSING_ID", "one or more records are missing an id")
	}

	placeholders := make([]string, len(ids))
	params := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		params[i] = id
	}
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s IN (%s)",
		sqladapter.QuoteIdentifier(octx.Schema.TableName), constants.ColumnID, strings.Join(placeholders, ", "))

	result, err := octx.System.Tx.Query(ctx, sql, params...)
	if err != nil {
		return err
	}

	octx.PreImages = make(map[string]Record, len(result.Rows))
	for _, row := range result.Rows {
		id := fmt.Sprint(row[constants.ColumnID])
		octx.PreImages[id] = row
	}
	return nil
}

// inputValidation is ring 1: JSON-Schema validation of every create/update
// payload against the resolved model (§9, "validate at ring 1").
func inputValidation(_ context.Context, octx *Context) error {
	if octx.Operation != constants.OpCreate && octx.Operation != constants.OpUpdate {
		return nil
	}
	for _, rec := range octx.Batch {
		payload := withoutSystemFields(rec)
		if err := octx.Schema.Validate(payload); err != nil {
			return apperr.ValidationFailed(apperr.FieldError{Field: "", Message: err.Error()})
		}
	}
	return nil
}

func withoutSystemFields(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		if _, system := systemColumnSet[k]; system {
			continue
		}
		out[k] = v
	}
	return out
}

var systemColumnSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(constants.SystemColumns))
	for _, c := range constants.SystemColumns {
		set[c] = struct{}{}
	}
	return set
}()

// security is ring 2: ACL evaluation against the principal's IDs. Create
// has no pre-image to check against and is not ACL-checked here; records
// with no loaded pre-image are skipped as well.
func security(_ context.Context, octx *Context) error {
	if octx.System.IsSudo() || octx.Operation == constants.OpCreate {
		return nil
	}

	for _, id := range octx.IDs() {
		pre, ok := octx.PreImages[id]
		if !ok {
			continue
		}
		if !principalMayMutate(octx.System, pre) {
			return apperr.Forbidden("ACCESS_DENIED", "caller lacks edit/full access to record "+id)
		}
	}
	return nil
}

func principalMayMutate(sys *SystemContext, row Record) bool {
	if inAny(sys, row[constants.ColumnAccessDeny]) {
		return false
	}
	return inAny(sys, row[constants.ColumnAccessFull]) || inAny(sys, row[constants.ColumnAccessEdit])
}

func inAny(sys *SystemContext, raw any) bool {
	for _, id := range decodeIDArray(raw) {
		if sys.HasPrincipal(id) {
			return true
		}
	}
	return false
}

func decodeIDArray(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		var out []string
		if v == "" {
			return nil
		}
		_ = json.Unmarshal([]byte(v), &out)
		return out
	case []byte:
		var out []string
		_ = json.Unmarshal(v, &out)
		return out
	default:
		return nil
	}
}

// enrichment is ring 4: ID generation for create when absent, and
// updated_at stamping for update (§4.4).
func enrichment(_ context.Context, octx *Context) error {
	now := time.Now().UTC()
	switch octx.Operation {
	case constants.OpCreate:
		for _, rec := range octx.Batch {
			if _, has := rec[constants.ColumnID]; !has {
				rec[constants.ColumnID] = uuid.Must(uuid.NewV7()).String()
			}
			for _, col := range accessColumns {
				if _, has := rec[col]; !has {
					rec[col] = []string{}
				}
			}
		}
	case constants.OpUpdate:
		for _, rec := range octx.Batch {
			rec[constants.ColumnUpdatedAt] = now
		}
	}
	return nil
}

// database is ring 5: the only ring allowed to touch the physical table
// (§4.4). It dispatches on octx.Operation and writes exactly one statement
// per batch record, collecting each row's post-image.
func database(ctx context.Context, octx *Context) error {
	switch octx.Operation {
	case constants.OpCreate:
		return databaseCreate(ctx, octx)
	case constants.OpUpdate:
		return databaseUpdate(ctx, octx)
	case constants.OpDelete:
		return databaseTimestampWrite(ctx, octx, constants.ColumnTrashedAt, "trashed_at IS NULL", nil)
	case constants.OpRevert:
		return databaseRevert(ctx, octx)
	case constants.OpExpire:
		return databaseTimestampWrite(ctx, octx, constants.ColumnDeletedAt, "deleted_at IS NULL", nil)
	case constants.OpAccess:
		return databaseAccess(ctx, octx)
	default:
		return fmt.Errorf("observer: unsupported operation %q", octx.Operation)
	}
}

func databaseCreate(ctx context.Context, octx *Context) error {
	table := sqladapter.QuoteIdentifier(octx.Schema.TableName)
	for _, rec := range octx.Batch {
		cols := make([]string, 0, len(rec))
		for col := range rec {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		placeholders := make([]string, len(cols))
		params := make([]any, len(cols))
		quoted := make([]string, len(cols))
		for i, col := range cols {
			quoted[i] = sqladapter.QuoteIdentifier(col)
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			params[i] = marshalColumn(octx.System.Driver, col, rec[col])
		}

		sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
		if _, err := octx.System.Tx.Query(ctx, sql, params...); err != nil {
			return err
		}
		octx.PostImages = append(octx.PostImages, rec)
	}
	return nil
}

func databaseUpdate(ctx context.Context, octx *Context) error {
	table := sqladapter.QuoteIdentifier(octx.Schema.TableName)
	for _, rec := range octx.Batch {
		id, _ := rec[constants.ColumnID].(string)
		if id == "" {
			return apperr.BadRequest("OPERATION_MISSING_ID", "update requires an id per record")
		}

		cols := make([]string, 0, len(rec))
		for col := range rec {
			if col == constants.ColumnID {
				continue
			}
			cols = append(cols, col)
		}
		sort.Strings(cols)
		if len(cols) == 0 {
			octx.PostImages = append(octx.PostImages, rec)
			continue
		}

		setClauses := make([]string, len(cols))
		params := make([]any, len(cols))
		for i, col := range cols {
			setClauses[i] = fmt.Sprintf("%s = $%d", sqladapter.QuoteIdentifier(col), i+1)
			params[i] = marshalColumn(octx.System.Driver, col, rec[col])
		}
		params = append(params, id)

		sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
			table, strings.Join(setClauses, ", "), constants.ColumnID, len(params))
		if _, err := octx.System.Tx.Query(ctx, sql, params...); err != nil {
			return err
		}
		octx.PostImages = append(octx.PostImages, rec)
	}
	return nil
}

// databaseTimestampWrite implements delete/expire: set one timestamp column
// to now() for every ID, gated by guard (e.g. "trashed_at IS NULL" so a
// double-delete is a no-op rather than an error).
func databaseTimestampWrite(ctx context.Context, octx *Context, column, guard string, extraGuard []string) error {
	table := sqladapter.QuoteIdentifier(octx.Schema.TableName)
	conditions := append([]string{guard}, extraGuard...)
	where := strings.Join(conditions, " AND ")

	for _, id := range octx.IDs() {
		sql := fmt.Sprintf("UPDATE %s SET %s = now() WHERE %s = $1 AND %s",
			table, sqladapter.QuoteIdentifier(column), constants.ColumnID, where)
		if _, err := octx.System.Tx.Query(ctx, sql, id); err != nil {
			return err
		}
		octx.PostImages = append(octx.PostImages, Record{constants.ColumnID: id})
	}
	return nil
}

// databaseRevert implements the trashed -> live transition. It requires the
// row to currently be trashed and not expired (§4.4 state machine); any
// other row is left alone and yields no post-image.
func databaseRevert(ctx context.Context, octx *Context) error {
	table := sqladapter.QuoteIdentifier(octx.Schema.TableName)
	for _, id := range octx.IDs() {
		sql := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = $1 AND %s IS NOT NULL AND %s IS NULL",
			table, constants.ColumnTrashedAt, constants.ColumnID, constants.ColumnTrashedAt, constants.ColumnDeletedAt)
		result, err := octx.System.Tx.Query(ctx, sql, id)
		if err != nil {
			return err
		}
		if result.RowCount == 0 {
			continue
		}
		octx.PostImages = append(octx.PostImages, Record{constants.ColumnID: id})
	}
	return nil
}

// databaseAccess applies an {add, remove} change set per access level
// (§4.5, "Access control mutation").
func databaseAccess(ctx context.Context, octx *Context) error {
	table := sqladapter.QuoteIdentifier(octx.Schema.TableName)
	for _, rec := range octx.Batch {
		id, _ := rec[constants.ColumnID].(string)
		if id == "" {
			return apperr.BadRequest("OPERATION_MISSING_ID", "access requires an id per record")
		}
		pre, ok := octx.PreImages[id]
		if !ok {
			continue
		}

		var setClauses []string
		var params []any
		for _, col := range accessColumns {
			change, present := rec[col].(map[string]any)
			if !present {
				continue
			}
			current := decodeIDArray(pre[col])
			updated := applyAccessChange(current, change)

			params = append(params, marshalColumn(octx.System.Driver, col, updated))
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", sqladapter.QuoteIdentifier(col), len(params)))
		}
		if len(setClauses) == 0 {
			octx.PostImages = append(octx.PostImages, rec)
			continue
		}

		params = append(params, id)
		sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
			table, strings.Join(setClauses, ", "), constants.ColumnID, len(params))
		if _, err := octx.System.Tx.Query(ctx, sql, params...); err != nil {
			return err
		}
		octx.PostImages = append(octx.PostImages, rec)
	}
	return nil
}

func applyAccessChange(current []string, change map[string]any) []string {
	set := make(map[string]struct{}, len(current))
	for _, id := range current {
		set[id] = struct{}{}
	}
	for _, id := range decodeIDArray(change["add"]) {
		set[id] = struct{}{}
	}
	for _, id := range decodeIDArray(change["remove"]) {
		delete(set, id)
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// marshalColumn prepares a Go value for binding into column col. Arrays
// (the access_* preamble, and any JSON-typed user column) travel as JSON
// text; Postgres JSONB columns accept a plain string parameter coerced by
// the driver, SQLite's TEXT columns store it verbatim.
func marshalColumn(_ sqladapter.Driver, _ string, value any) any {
	switch v := value.(type) {
	case []string:
		raw, _ := json.Marshal(v)
		return string(raw)
	case map[string]any, []any:
		raw, _ := json.Marshal(v)
		return string(raw)
	default:
		return v
	}
}
