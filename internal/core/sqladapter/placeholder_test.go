// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqladapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebase/forge/internal/core/sqladapter"
)

func TestRewriteForSQLite_Ascending(t *testing.T) {
	sql, params, err := sqladapter.RewriteForSQLite(
		`SELECT * FROM t WHERE "age" >= $1 AND "age" < $2`,
		[]any{18, 65},
	)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM t WHERE "age" >= ? AND "age" < ?`, sql)
	assert.Equal(t, []any{18, 65}, params)
}

// TestRewriteForSQLite_DoesNotClobberDoubleDigitIndex guards against the
// naive "replace $1 before $10" bug called out in §9: a single regexp pass
// must read $10 as index 10, not index 1 followed by a literal "0".
func TestRewriteForSQLite_DoesNotClobberDoubleDigitIndex(t *testing.T) {
	params := make([]any, 10)
	for i := range params {
		params[i] = i + 1
	}

	sql, reordered, err := sqladapter.RewriteForSQLite(`SELECT $10, $1`, params)
	require.NoError(t, err)
	assert.Equal(t, `SELECT ?, ?`, sql)
	assert.Equal(t, []any{10, 1}, reordered)
}

func TestRewriteForSQLite_OutOfRangeIndex(t *testing.T) {
	_, _, err := sqladapter.RewriteForSQLite(`SELECT $3`, []any{1})
	require.Error(t, err)
}

func TestHighestPlaceholderIndex(t *testing.T) {
	assert.Equal(t, 0, sqladapter.HighestPlaceholderIndex("SELECT 1"))
	assert.Equal(t, 12, sqladapter.HighestPlaceholderIndex("SELECT $3, $12, $7"))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"age"`, sqladapter.QuoteIdentifier("age"))
	assert.Equal(t, `"we""ird"`, sqladapter.QuoteIdentifier(`we"ird`))
}
