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
)

// AggregateFunc is one of the five §4.5 aggregate functions.
type AggregateFunc string

const (
	AggCount AggregateFunc = "$count"
	AggSum   AggregateFunc = "$sum"
	AggAvg   AggregateFunc = "$avg"
	AggMin   AggregateFunc = "$min"
	AggMax   AggregateFunc = "$max"
)

// AggregateTerm is one `{<alias>: {<func>: <field-or-*>}}` entry.
type AggregateTerm struct {
	Alias string
	Func  AggregateFunc
	Field string // "*" permitted only for $count
}

// AggregateSpec is the normalized `{aggregate, where, groupBy}` shape every
// aggregation request — direct API call or bulk envelope — funnels into
// (per the Open Question decision recorded in DESIGN.md).
type AggregateSpec struct {
	Terms   []AggregateTerm
	Where   *filter.Condition
	GroupBy []string
}

func aggregateSQLFunc(fn AggregateFunc) (string, error) {
	switch fn {
	case AggCount:
		return "COUNT", nil
	case AggSum:
		return "SUM", nil
	case AggAvg:
		return "AVG", nil
	case AggMin:
		return "MIN", nil
	case AggMax:
		return "MAX", nil
	default:
		return "", apperr.BadRequest("AGGREGATE_UNSUPPORTED_FUNCTION", "unsupported aggregate function: "+string(fn))
	}
}

// Aggregate compiles spec to a single SQL statement: the Filter compiler
// handles WHERE, and a generated SELECT list carries the aggregate terms
// plus any GROUP BY columns (§4.5, "Aggregation").
func (s *Service) Aggregate(ctx context.Context, model string, spec AggregateSpec) ([]Record, error) {
	return s.aggregateVia(ctx, s.adapter, model, spec)
}

// aggregateVia is Aggregate parameterized over the Querier to read through,
// so a bulk envelope's aggregate step can run against that request's shared
// transaction (§4.5, "Bulk request").
func (s *Service) aggregateVia(ctx context.Context, q sqladapter.Querier, model string, spec AggregateSpec) ([]Record, error) {
	m, err := s.resolveModel(ctx, model)
	if err != nil {
		return nil, err
	}
	if len(spec.Terms) == 0 {
		return nil, apperr.BadRequest("AGGREGATE_EMPTY", "aggregate requires at least one term")
	}

	selectParts := make([]string, 0, len(spec.Terms)+len(spec.GroupBy))
	for _, g := range spec.GroupBy {
		selectParts = append(selectParts, sqladapter.QuoteIdentifier(g)+" AS "+sqladapter.QuoteIdentifier(g))
	}
	for _, term := range spec.Terms {
		sqlFunc, err := aggregateSQLFunc(term.Func)
		if err != nil {
			return nil, err
		}
		arg := "*"
		if term.Field != "*" {
			arg = sqladapter.QuoteIdentifier(term.Field)
		}
		selectParts = append(selectParts, fmt.Sprintf("%s(%s) AS %s", sqlFunc, arg, sqladapter.QuoteIdentifier(term.Alias)))
	}

	compiled, err := filter.Compile(filter.Document{Where: spec.Where}, filter.Options{})
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(selectParts, ", "), sqladapter.QuoteIdentifier(m.TableName), compiled.WhereClause)

	if len(spec.GroupBy) > 0 {
		quoted := make([]string, len(spec.GroupBy))
		for i, g := range spec.GroupBy {
			quoted[i] = sqladapter.QuoteIdentifier(g)
		}
		sql += " GROUP BY " + strings.Join(quoted, ", ")
	}

	result, err := q.Query(ctx, sql, compiled.Params...)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}
