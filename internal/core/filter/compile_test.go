// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package filter_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebase/forge/internal/core/filter"
)

func mustDoc(t *testing.T, jsonDoc string) filter.Document {
	t.Helper()
	var doc filter.Document
	require.NoError(t, json.Unmarshal([]byte(jsonDoc), &doc))
	return doc
}

// TestCompile_ScenarioFive reproduces §8 scenario 5 exactly: param order
// must follow field-occurrence order in the JSON document (age before
// email), and the soft-delete overlay must prefix the user predicate.
func TestCompile_ScenarioFive(t *testing.T) {
	doc := mustDoc(t, `{
		"where": {"age": {"$gte": 18, "$lt": 65}, "email": {"$like": "%@x.y"}},
		"order": [{"name": "asc"}],
		"limit": 10
	}`)

	compiled, err := filter.Compile(doc, filter.Options{})
	require.NoError(t, err)

	assert.Equal(t,
		`"trashed_at" IS NULL AND "deleted_at" IS NULL AND ("age" >= $1 AND "age" < $2 AND "email" LIKE $3)`,
		compiled.WhereClause,
	)
	if diff := cmp.Diff([]any{18.0, 65.0, "%@x.y"}, compiled.Params); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, `"name" ASC`, compiled.OrderBy)
	require.NotNil(t, compiled.Limit)
	assert.Equal(t, 10, *compiled.Limit)
}

func TestCompile_IncludeTrashedDropsOverlay(t *testing.T) {
	doc := mustDoc(t, `{"where": {"id": "abc"}}`)
	compiled, err := filter.Compile(doc, filter.Options{IncludeTrashed: true, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, `"id" = $1`, compiled.WhereClause)
}

func TestCompile_EmptyInOperatorIsAlwaysFalse(t *testing.T) {
	doc := mustDoc(t, `{"where": {"tag": {"$in": []}}}`)
	compiled, err := filter.Compile(doc, filter.Options{IncludeTrashed: true, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, "FALSE", compiled.WhereClause)
	assert.Empty(t, compiled.Params)
}

func TestCompile_LogicalOr(t *testing.T) {
	doc := mustDoc(t, `{"where": {"$or": [{"status": "ongoing"}, {"status": "hiatus"}]}}`)
	compiled, err := filter.Compile(doc, filter.Options{IncludeTrashed: true, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, `("status" = $1) OR ("status" = $2)`, compiled.WhereClause)
	assert.Equal(t, []any{"ongoing", "hiatus"}, compiled.Params)
}

func TestCompile_BetweenRequiresTwoNonNullBounds(t *testing.T) {
	doc := mustDoc(t, `{"where": {"age": {"$between": [18, null]}}}`)
	_, err := filter.Compile(doc, filter.Options{})
	require.Error(t, err)
}

func TestCompile_UnsupportedOperator(t *testing.T) {
	doc := mustDoc(t, `{"where": {"age": {"$bogus": 1}}}`)
	_, err := filter.Compile(doc, filter.Options{})
	require.Error(t, err)
}

func TestCompile_InvalidFieldNameRejected(t *testing.T) {
	doc := mustDoc(t, `{"where": {"bad name; DROP TABLE x": 1}}`)
	_, err := filter.Compile(doc, filter.Options{})
	require.Error(t, err)
}

func TestCompile_StartingParamIndexComposesAfterSetClause(t *testing.T) {
	doc := mustDoc(t, `{"where": {"id": "abc"}}`)
	compiled, err := filter.Compile(doc, filter.Options{StartingParamIndex: 2, IncludeTrashed: true, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, `"id" = $3`, compiled.WhereClause)
}
