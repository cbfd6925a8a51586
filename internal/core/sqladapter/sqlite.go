// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqladapter

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/forgebase/forge/internal/platform/dberr"
)

// sqliteAdapter implements Adapter over a single *sql.DB. SQLite has no
// real concurrent-writer pool, so each tenant gets exactly one connection
// (maxOpenConns=1) and a mutex serializes access the way a single physical
// connection would under the Postgres backend.
type sqliteAdapter struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) a SQLite database file at path and wraps it
// as a sqladapter.Adapter.
func NewSQLite(path string) (Adapter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	db.SetMaxOpenConns(1)
	return &sqliteAdapter{db: db}, nil
}

func (a *sqliteAdapter) Type() Driver { return SQLite }

func (a *sqliteAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *sqliteAdapter) Close() error {
	return a.db.Close()
}

func (a *sqliteAdapter) Query(ctx context.Context, rawSQL string, params ...any) (*Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return querySQLite(ctx, a.db, rawSQL, params...)
}

func (a *sqliteAdapter) Begin(ctx context.Context) (Tx, error) {
	a.mu.Lock()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		a.mu.Unlock()
		return nil, dberr.Wrap(err, "")
	}
	return &sqliteTx{tx: tx, unlock: a.mu.Unlock}, nil
}

type sqliteTx struct {
	tx     *sql.Tx
	closed bool
	unlock func()
}

func (t *sqliteTx) Query(ctx context.Context, rawSQL string, params ...any) (*Result, error) {
	return querySQLite(ctx, t.tx, rawSQL, params...)
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	if t.closed {
		return ErrNoActiveTransaction
	}
	t.closed = true
	defer t.unlock()
	return dberr.Wrap(t.tx.Commit(), "")
}

func (t *sqliteTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	defer t.unlock()
	return dberr.Wrap(t.tx.Rollback(), "")
}

// sqliteQuerier is the subset shared by *sql.DB and *sql.Tx.
type sqliteQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func querySQLite(ctx context.Context, q sqliteQuerier, rawSQL string, params ...any) (*Result, error) {
	translated, reordered, err := RewriteForSQLite(rawSQL, params)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}

	isSelect := strings.HasPrefix(strings.TrimSpace(strings.ToUpper(translated)), "SELECT")
	if !isSelect {
		execResult, err := q.ExecContext(ctx, translated, reordered...)
		if err != nil {
			return nil, dberr.Wrap(err, "")
		}
		affected, err := execResult.RowsAffected()
		if err != nil {
			return nil, dberr.Wrap(err, "")
		}
		return &Result{RowCount: affected}, nil
	}

	rows, err := q.QueryContext(ctx, translated, reordered...)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, dberr.Wrap(err, "")
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "")
	}

	return &Result{Rows: out, RowCount: int64(len(out))}, nil
}
