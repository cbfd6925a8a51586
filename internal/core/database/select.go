// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgebase/forge/internal/core/filter"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/constants"
)

func trashedOptions(mode constants.TrashedMode) filter.Options {
	switch mode {
	case constants.TrashedInclude:
		return filter.Options{IncludeTrashed: true}
	case constants.TrashedOnly:
		// "only" is expressed by the caller adding trashed_at IS NOT NULL to
		// their own filter; the compiler's overlay only ever narrows to live
		// rows or lifts that narrowing, it never flips the predicate.
		return filter.Options{IncludeTrashed: true, IncludeDeleted: true}
	default:
		return filter.Options{}
	}
}

// buildSelectSQL compiles doc against table and returns the full SQL text
// plus bound parameters.
func buildSelectSQL(tableName string, doc filter.Document, opts ReadOptions) (string, []any, error) {
	compiled, err := filter.Compile(doc, trashedOptions(opts.Trashed))
	if err != nil {
		return "", nil, err
	}

	columns := "*"
	if len(doc.Select) > 0 {
		quoted := make([]string, len(doc.Select))
		for i, col := range doc.Select {
			quoted[i] = sqladapter.QuoteIdentifier(col)
		}
		columns = strings.Join(quoted, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", columns, sqladapter.QuoteIdentifier(tableName), compiled.WhereClause)
	if compiled.OrderBy != "" {
		sql += " ORDER BY " + compiled.OrderBy
	}
	if compiled.Limit != nil {
		sql += fmt.Sprintf(" LIMIT %d", *compiled.Limit)
	}
	if compiled.Offset != nil {
		sql += fmt.Sprintf(" OFFSET %d", *compiled.Offset)
	}
	return sql, compiled.Params, nil
}

// SelectAny returns every row matching doc, with no observer pipeline
// involvement (§4.5, "Select family").
func (s *Service) SelectAny(ctx context.Context, model string, doc filter.Document, opts ReadOptions) ([]Record, error) {
	return s.selectAnyVia(ctx, s.adapter, model, doc, opts)
}

// selectAnyVia is SelectAny parameterized over the Querier to read through —
// the bare adapter for a standalone read, or the bulk request's shared
// transaction so a filter-driven envelope sees that transaction's own
// uncommitted writes from an earlier envelope in the same batch.
func (s *Service) selectAnyVia(ctx context.Context, q sqladapter.Querier, model string, doc filter.Document, opts ReadOptions) ([]Record, error) {
	m, err := s.resolveModel(ctx, model)
	if err != nil {
		return nil, err
	}
	sql, params, err := buildSelectSQL(m.TableName, doc, opts)
	if err != nil {
		return nil, err
	}
	result, err := q.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// SelectOne returns the first matching row, or nil if none match.
func (s *Service) SelectOne(ctx context.Context, model string, doc filter.Document, opts ReadOptions) (Record, error) {
	one := 1
	doc.Limit = &one
	rows, err := s.SelectAny(ctx, model, doc, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Select404 is SelectOne but fails with RECORD_NOT_FOUND when nothing matches.
func (s *Service) Select404(ctx context.Context, model string, doc filter.Document, opts ReadOptions) (Record, error) {
	row, err := s.SelectOne(ctx, model, doc, opts)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.RecordNotFound(model)
	}
	return row, nil
}

// SelectIds returns the rows whose id is in ids, in no particular order
// beyond what the underlying query happens to produce.
func (s *Service) SelectIds(ctx context.Context, model string, ids []string, opts ReadOptions) ([]Record, error) {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	doc := filter.Document{Where: &filter.Condition{
		Keys:   []string{constants.ColumnID},
		Values: map[string]any{constants.ColumnID: &filter.Condition{Keys: []string{"$in"}, Values: map[string]any{"$in": values}}},
	}}
	return s.SelectAny(ctx, model, doc, opts)
}

// Count returns how many rows match doc, ignoring select/order/limit/offset.
func (s *Service) Count(ctx context.Context, model string, doc filter.Document, opts ReadOptions) (int64, error) {
	m, err := s.resolveModel(ctx, model)
	if err != nil {
		return 0, err
	}
	doc.Select, doc.Order, doc.Limit, doc.Offset = nil, nil, nil, nil
	compiled, err := filter.Compile(doc, trashedOptions(opts.Trashed))
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s WHERE %s", sqladapter.QuoteIdentifier(m.TableName), compiled.WhereClause)
	result, err := s.adapter.Query(ctx, sql, compiled.Params...)
	if err != nil {
		return 0, err
	}
	if len(result.Rows) == 0 {
		return 0, nil
	}
	return toInt64(result.Rows[0]["count"]), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// idsFromRows extracts the "id" column from a row slice, preserving order.
func idsFromRows(rows []Record) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := row[constants.ColumnID].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
