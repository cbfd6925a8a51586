// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter

import (
	"fmt"
	"strings"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/validate"
)

// Options configures a single Compile call (§4.2).
type Options struct {
	// StartingParamIndex lets the compiler compose after a preceding
	// UPDATE … SET clause that already consumed some $n slots.
	StartingParamIndex int
	IncludeTrashed      bool
	IncludeDeleted      bool
}

// Compiled is the parameterized output of Compile.
type Compiled struct {
	WhereClause string
	Params      []any
	OrderBy     string
	Limit       *int
	Offset      *int
}

// state threads the running parameter index and accumulated params through
// the recursive descent.
type state struct {
	params []any
	next   int
}

func (s *state) bind(value any) string {
	s.params = append(s.params, value)
	placeholder := fmt.Sprintf("$%d", s.next)
	s.next++
	return placeholder
}

// Compile turns doc into a parameterized WHERE/ORDER BY/LIMIT/OFFSET. It
// never touches the database.
func Compile(doc Document, opts Options) (*Compiled, error) {
	s := &state{next: opts.StartingParamIndex + 1}

	userClause := "TRUE"
	if doc.Where != nil && doc.Where.Len() > 0 {
		clause, err := compileCondition(doc.Where, s)
		if err != nil {
			return nil, err
		}
		userClause = clause
	}

	overlay := softDeleteOverlay(opts)
	whereClause := userClause
	if overlay != "" {
		if userClause == "TRUE" {
			whereClause = overlay
		} else {
			whereClause = overlay + " AND (" + userClause + ")"
		}
	}

	orderBy, err := compileOrder(doc.Order)
	if err != nil {
		return nil, err
	}

	return &Compiled{
		WhereClause: whereClause,
		Params:      s.params,
		OrderBy:     orderBy,
		Limit:       doc.Limit,
		Offset:      doc.Offset,
	}, nil
}

func softDeleteOverlay(opts Options) string {
	var parts []string
	if !opts.IncludeTrashed {
		parts = append(parts, `"trashed_at" IS NULL`)
	}
	if !opts.IncludeDeleted {
		parts = append(parts, `"deleted_at" IS NULL`)
	}
	return strings.Join(parts, " AND ")
}

// compileCondition compiles a <condition> object: a set of field/logical
// keys implicitly AND-ed together, in input key order.
func compileCondition(cond *Condition, s *state) (string, error) {
	var parts []string
	for _, key := range cond.Keys {
		value := cond.Values[key]
		var (
			fragment string
			err      error
		)
		if strings.HasPrefix(key, "$") {
			fragment, err = compileLogical(key, value, s)
		} else {
			fragment, err = compileField(key, value, s)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, fragment)
	}
	if len(parts) == 0 {
		return "TRUE", nil
	}
	return strings.Join(parts, " AND "), nil
}

// asConditionList normalizes a logical operator's value into a slice of
// sub-conditions. Every logical operator accepts either a single
// <condition> or an array of conditions.
func asConditionList(value any) ([]*Condition, error) {
	switch v := value.(type) {
	case *Condition:
		return []*Condition{v}, nil
	case []any:
		list := make([]*Condition, 0, len(v))
		for _, item := range v {
			cond, ok := item.(*Condition)
			if !ok {
				return nil, errInvalidShape("logical operator array must contain condition objects")
			}
			list = append(list, cond)
		}
		return list, nil
	default:
		return nil, errInvalidShape("logical operator requires a condition object or array of conditions")
	}
}

func compileLogical(op string, value any, s *state) (string, error) {
	conditions, err := asConditionList(value)
	if err != nil {
		return "", err
	}

	compiledParts := make([]string, 0, len(conditions))
	for _, c := range conditions {
		part, err := compileCondition(c, s)
		if err != nil {
			return "", err
		}
		compiledParts = append(compiledParts, "("+part+")")
	}

	switch op {
	case "$and":
		return strings.Join(compiledParts, " AND "), nil
	case "$or":
		return strings.Join(compiledParts, " OR "), nil
	case "$nand":
		return "NOT (" + strings.Join(compiledParts, " AND ") + ")", nil
	case "$nor":
		return "NOT (" + strings.Join(compiledParts, " OR ") + ")", nil
	case "$not":
		return "NOT (" + strings.Join(compiledParts, " AND ") + ")", nil
	default:
		return "", errUnsupportedOperator(op)
	}
}

// compileField compiles {field: value|operatorObject}, the only defense
// against identifier injection being that field matches the shared
// identifier grammar before it is ever concatenated into SQL text.
func compileField(field string, value any, s *state) (string, error) {
	if !validate.IdentifierRegex.MatchString(field) {
		return "", errInvalidFieldName(field)
	}
	column := sqladapter.QuoteIdentifier(field)

	operators, isOperatorObject := value.(*Condition)
	if !isOperatorObject {
		return compileOperator(column, field, "$eq", value, s)
	}

	var parts []string
	for _, op := range operators.Keys {
		fragment, err := compileOperator(column, field, op, operators.Values[op], s)
		if err != nil {
			return "", err
		}
		parts = append(parts, fragment)
	}
	if len(parts) == 0 {
		return "TRUE", nil
	}
	return strings.Join(parts, " AND "), nil
}

func compileOperator(column, field, op string, value any, s *state) (string, error) {
	switch op {
	case "$eq":
		if value == nil {
			return column + " IS NULL", nil
		}
		return column + " = " + s.bind(value), nil
	case "$ne", "$neq":
		if value == nil {
			return column + " IS NOT NULL", nil
		}
		return column + " != " + s.bind(value), nil
	case "$gt":
		return column + " > " + s.bind(value), nil
	case "$gte":
		return column + " >= " + s.bind(value), nil
	case "$lt":
		return column + " < " + s.bind(value), nil
	case "$lte":
		return column + " <= " + s.bind(value), nil
	case "$like":
		return column + " LIKE " + s.bind(value), nil
	case "$nlike":
		return column + " NOT LIKE " + s.bind(value), nil
	case "$ilike":
		return column + " ILIKE " + s.bind(value), nil
	case "$nilike":
		return column + " NOT ILIKE " + s.bind(value), nil
	case "$regex":
		return column + " ~ " + s.bind(value), nil
	case "$nregex":
		return column + " !~ " + s.bind(value), nil
	case "$find", "$text":
		needle, _ := value.(string)
		return column + " ILIKE " + s.bind("%" + needle + "%"), nil
	case "$in":
		return compileMembership(column, value, s, true)
	case "$nin":
		return compileMembership(column, value, s, false)
	case "$any":
		return column + " && " + s.bind(value), nil
	case "$all":
		return column + " @> " + s.bind(value), nil
	case "$nany":
		return "NOT (" + column + " && " + s.bind(value) + ")", nil
	case "$nall":
		return "NOT (" + column + " @> " + s.bind(value) + ")", nil
	case "$size":
		return compileSize(column, field, value, s)
	case "$between":
		return compileBetween(column, field, value, s)
	case "$exists":
		present, _ := value.(bool)
		if present {
			return column + " IS NOT NULL", nil
		}
		return column + " IS NULL", nil
	case "$null":
		isNull, _ := value.(bool)
		if isNull {
			return column + " IS NULL", nil
		}
		return column + " IS NOT NULL", nil
	default:
		return "", errUnsupportedOperator(op)
	}
}

func compileMembership(column string, value any, s *state, isIn bool) (string, error) {
	list, ok := value.([]any)
	if !ok {
		return "", errInvalidShape(fmt.Sprintf("%s requires an array value", map[bool]string{true: "$in", false: "$nin"}[isIn]))
	}
	if len(list) == 0 {
		if isIn {
			return "FALSE", nil
		}
		return "TRUE", nil
	}
	placeholders := make([]string, 0, len(list))
	for _, item := range list {
		placeholders = append(placeholders, s.bind(item))
	}
	verb := "IN"
	if !isIn {
		verb = "NOT IN"
	}
	return column + " " + verb + " (" + strings.Join(placeholders, ", ") + ")", nil
}

// compileSize maps $size to array_length(column, 1) compared against a
// value that may itself be a nested numeric operator ({$gte: 3}) or a bare
// number (implicit $eq), per §4.2.
func compileSize(column, field string, value any, s *state) (string, error) {
	lengthExpr := "array_length(" + column + ", 1)"
	nested, isNested := value.(*Condition)
	if !isNested {
		return lengthExpr + " = " + s.bind(value), nil
	}

	var parts []string
	for _, op := range nested.Keys {
		fragment, err := compileOperator(lengthExpr, field, op, nested.Values[op], s)
		if err != nil {
			return "", err
		}
		parts = append(parts, fragment)
	}
	if len(parts) == 0 {
		return "TRUE", nil
	}
	return strings.Join(parts, " AND "), nil
}

func compileBetween(column, field string, value any, s *state) (string, error) {
	bounds, ok := value.([]any)
	if !ok || len(bounds) != 2 || bounds[0] == nil || bounds[1] == nil {
		return "", errBetweenRequiresArray(field)
	}
	lower := s.bind(bounds[0])
	upper := s.bind(bounds[1])
	return column + " BETWEEN " + lower + " AND " + upper, nil
}
