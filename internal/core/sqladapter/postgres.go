// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sqladapter

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forgebase/forge/internal/platform/dberr"
)

// postgresAdapter implements Adapter over a shared *pgxpool.Pool. $1…$n
// placeholders need no translation — they are pgx's native syntax. A
// transaction opened via Begin is a separate postgresTx value, not shared
// mutable state on the adapter, so concurrent callers never collide.
type postgresAdapter struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an already-connected pool (see internal/platform/postgres)
// as a sqladapter.Adapter.
func NewPostgres(pool *pgxpool.Pool) Adapter {
	return &postgresAdapter{pool: pool}
}

func (a *postgresAdapter) Type() Driver { return Postgres }

func (a *postgresAdapter) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *postgresAdapter) Close() error {
	a.pool.Close()
	return nil
}

func (a *postgresAdapter) Query(ctx context.Context, sql string, params ...any) (*Result, error) {
	return queryRows(ctx, a.pool, sql, params...)
}

// Begin opens a new pgx.Tx. The returned Tx wraps the underlying connection
// directly so nested Begin calls on the same adapter are impossible by
// construction (pgx.Tx has no further Begin surfaced here).
func (a *postgresAdapter) Begin(ctx context.Context) (Tx, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	return &postgresTx{tx: tx}, nil
}

type postgresTx struct {
	tx     pgx.Tx
	closed bool
}

func (t *postgresTx) Query(ctx context.Context, sql string, params ...any) (*Result, error) {
	return queryRows(ctx, t.tx, sql, params...)
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if t.closed {
		return ErrNoActiveTransaction
	}
	t.closed = true
	return dberr.Wrap(t.tx.Commit(ctx), "")
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	if t.closed {
		return nil
	}
	t.closed = true
	return dberr.Wrap(t.tx.Rollback(ctx), "")
}

// rowQuerier is the subset of pgx.Tx/*pgxpool.Pool used for executing a
// single statement and scanning its result set, whatever shape it is.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryRows(ctx context.Context, querier rowQuerier, sql string, params ...any) (*Result, error) {
	rows, err := querier.Query(ctx, sql, params...)
	if err != nil {
		return nil, dberr.Wrap(err, "")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	isSelect := strings.HasPrefix(strings.TrimSpace(strings.ToUpper(sql)), "SELECT") ||
		strings.Contains(strings.ToUpper(sql), "RETURNING")

	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, dberr.Wrap(err, "")
		}
		record := make(map[string]any, len(fields))
		for i, field := range fields {
			record[string(field.Name)] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "")
	}

	tag := rows.CommandTag()
	result := &Result{RowCount: tag.RowsAffected()}
	if isSelect {
		result.Rows = out
		result.RowCount = int64(len(out))
	}
	return result, nil
}
