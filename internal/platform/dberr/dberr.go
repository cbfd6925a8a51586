// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors ([apperr.AppError]).
//
// It is consulted by ring 5 of the Observer Pipeline (the only ring allowed
// to touch SQL) and by the SQL Adapter's Postgres and SQLite backends.
package dberr

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/forgebase/forge/internal/platform/apperr"
)

// sqliteUniqueMarker is the substring modernc.org/sqlite surfaces in its
// error text for a UNIQUE constraint violation; the driver does not expose
// a typed sentinel the way pgconn.PgError does.
const sqliteUniqueMarker = "UNIQUE constraint failed"

// Wrap inspects a database error and wraps it into a meaningful [apperr.AppError].
// It hides internal database details from the client while classifying the
// error as RECORD_NOT_FOUND or CONFLICT where the underlying driver makes
// that classification possible; anything else becomes INTERNAL.
func Wrap(err error, model string) error {
	if err == nil {
		return nil
	}

	// 1. Not-found mapping, both backends
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return apperr.RecordNotFound(model)
	}

	// 2. Unique-constraint violation, Postgres
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return apperr.Conflict("a record with this value already exists")
	}

	// 3. Unique-constraint violation, SQLite (string-matched — the pure-Go
	// driver does not export a typed error for this)
	if strings.Contains(err.Error(), sqliteUniqueMarker) {
		return apperr.Conflict("a record with this value already exists")
	}

	// 4. Unknown query errors become Internal Server Errors
	return apperr.Internal(err)
}
