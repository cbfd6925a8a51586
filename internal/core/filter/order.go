// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter

import (
	"strings"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/validate"
)

// compileOrder accepts "field", "field asc", "field desc",
// []string of the same, or []map[string]any{"field": "asc"|"desc"}, and
// produces a comma-joined ORDER BY clause. Default direction is ascending;
// unknown directions are errors (§4.2).
func compileOrder(order any) (string, error) {
	if order == nil {
		return "", nil
	}

	switch v := order.(type) {
	case string:
		return compileOneOrderTerm(v)
	case []any:
		var terms []string
		for _, item := range v {
			term, err := compileOrderElement(item)
			if err != nil {
				return "", err
			}
			terms = append(terms, term)
		}
		return strings.Join(terms, ", "), nil
	default:
		return "", errInvalidShape("order must be a string or an array")
	}
}

func compileOrderElement(item any) (string, error) {
	switch v := item.(type) {
	case string:
		return compileOneOrderTerm(v)
	case map[string]any:
		for field, dir := range v {
			direction, ok := dir.(string)
			if !ok {
				return "", errInvalidOrder("non-string direction")
			}
			return compileFieldDirection(field, direction)
		}
		return "", errInvalidShape("order element object is empty")
	default:
		return "", errInvalidShape("order array element must be a string or {field: direction} object")
	}
}

// compileOneOrderTerm splits "field", "field asc", or "field desc".
func compileOneOrderTerm(term string) (string, error) {
	fields := strings.Fields(term)
	switch len(fields) {
	case 1:
		return compileFieldDirection(fields[0], "asc")
	case 2:
		return compileFieldDirection(fields[0], fields[1])
	default:
		return "", errInvalidShape("invalid order term: " + term)
	}
}

func compileFieldDirection(field, direction string) (string, error) {
	if !validate.IdentifierRegex.MatchString(field) {
		return "", errInvalidFieldName(field)
	}
	switch strings.ToLower(direction) {
	case "asc":
		return sqladapter.QuoteIdentifier(field) + " ASC", nil
	case "desc":
		return sqladapter.QuoteIdentifier(field) + " DESC", nil
	default:
		return "", errInvalidOrder(direction)
	}
}
