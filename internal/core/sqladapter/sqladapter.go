// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sqladapter is the thin driver abstraction every other core package
builds on: a single Adapter interface offering parameterized queries, scoped
transactions, and a uniform `$1…$n` placeholder convention translated to
whichever driver is actually behind it.

Two backends implement the interface: Postgres (pgx/v5 + pgxpool) and
SQLite (modernc.org/sqlite, pure Go, one connection per tenant). Nothing
above this package branches on the concrete driver except where Type()
is consulted for dialect-specific DDL (see internal/core/metabase).
*/
package sqladapter

import (
	"context"
	"fmt"
)

// Driver identifies which physical database backs an Adapter.
type Driver string

const (
	// Postgres backs multi-tenant production deployments.
	Postgres Driver = "postgres"
	// SQLite backs single-file, cgo-free tenant deployments.
	SQLite Driver = "sqlite"
)

// Result is the uniform shape returned by Query: rows for SELECT-shaped
// statements, an affected-row count for mutations (with an empty Rows
// slice).
type Result struct {
	Rows     []map[string]any
	RowCount int64
}

// Querier is the read/write surface shared by a bare Adapter and an open Tx.
type Querier interface {
	// Query executes sql with positional params referenced as $1…$n in the
	// SQL text, regardless of the underlying driver's native placeholder
	// syntax. Driver errors surface as-is; the adapter never swallows them.
	Query(ctx context.Context, sql string, params ...any) (*Result, error)
}

// Tx is a single active transaction scope; nested transactions are not
// supported. The SQLite adapter holds its one connection for the life of a
// Tx, so a second Begin waits until the first Tx ends; the Postgres adapter
// allows concurrent transactions on its pool.
type Tx interface {
	Querier
	// Commit finalizes the transaction. Calling Commit without storage
	// actually having begun one is an error.
	Commit(ctx context.Context) error
	// Rollback discards the transaction. It is a no-op if there is no open
	// transaction (mirrors §4.1's "rollback without one is a no-op").
	Rollback(ctx context.Context) error
}

// Adapter is the full contract a backend must satisfy.
type Adapter interface {
	Querier
	// Begin opens a new transaction scope.
	Begin(ctx context.Context) (Tx, error)
	// Type reports which physical database is behind this Adapter.
	Type() Driver
	// Ping verifies connectivity without mutating state.
	Ping(ctx context.Context) error
	// Close releases the underlying connection/pool.
	Close() error
}

// ErrNoActiveTransaction is returned by Commit when Rollback or Commit is
// called on a Tx whose underlying transaction has already been closed.
var ErrNoActiveTransaction = fmt.Errorf("sqladapter: no active transaction")
