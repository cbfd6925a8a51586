// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/database/schema"
)

// checksum canonicalizes def (encoding/json sorts map keys, making this
// byte-stable across calls with the same logical content) and returns its
// hex-encoded SHA-256 digest.
func checksum(def SchemaDefinition) (string, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// insertSchemaRow writes one row into the `schemas` registry table.
func insertSchemaRow(ctx context.Context, q sqladapter.Querier, m *Model) error {
	def, err := json.Marshal(m.Definition)
	if err != nil {
		return fmt.Errorf("metabase: marshal definition: %w", err)
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6, now(), now(), $7)`,
		sqladapter.QuoteIdentifier(schema.Schema.Table),
		schema.Schema.ID, schema.Schema.Name, schema.Schema.TableName, schema.Schema.Status,
		schema.Schema.Definition, schema.Schema.FieldCount, schema.Schema.CreatedAt, schema.Schema.UpdatedAt,
		schema.Schema.JSONChecksum,
	)
	_, err = q.Query(ctx, sql, m.ID, m.Name, m.TableName, string(m.Status), string(def), m.FieldCount, m.Checksum)
	return err
}

// insertColumnRows writes one row per surviving property into the `columns`
// registry table.
func insertColumnRows(ctx context.Context, q sqladapter.Querier, schemaName string, columns []ColumnRecord) error {
	for _, col := range columns {
		id := uuid.Must(uuid.NewV7()).String()
		sql := fmt.Sprintf(
			`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17, now(), now())`,
			sqladapter.QuoteIdentifier(schema.Column.Table),
			schema.Column.ID, schema.Column.SchemaName, schema.Column.ColumnName, schema.Column.PgType,
			schema.Column.IsRequired, schema.Column.DefaultValue, schema.Column.RelationshipType,
			schema.Column.RelatedSchema, schema.Column.RelatedColumn, schema.Column.RelationshipName,
			schema.Column.CascadeDelete, schema.Column.RequiredRelationship, schema.Column.Minimum,
			schema.Column.Maximum, schema.Column.PatternRegex, schema.Column.EnumValues, schema.Column.IsArray,
		)
		enumJSON, err := json.Marshal(col.EnumValues)
		if err != nil {
			return err
		}
		_, err = q.Query(ctx, sql,
			id, schemaName, col.ColumnName, col.PgType,
			col.IsRequired, col.DefaultValue, string(col.RelationshipType),
			col.RelatedSchema, col.RelatedColumn, col.RelationshipName,
			col.CascadeDelete, col.RequiredRelationship, col.Minimum,
			col.Maximum, col.PatternRegex, string(enumJSON), col.IsArray,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// selectSchemaRow loads a live (non-deleted) registry row by name.
func selectSchemaRow(ctx context.Context, q sqladapter.Querier, name string) (*Model, error) {
	sql := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1 AND %s IS NULL`,
		schema.Schema.ID, schema.Schema.Name, schema.Schema.TableName, schema.Schema.Status,
		schema.Schema.Definition, schema.Schema.FieldCount, schema.Schema.JSONChecksum,
		schema.Schema.CreatedAt, schema.Schema.UpdatedAt, schema.Schema.TrashedAt,
		sqladapter.QuoteIdentifier(schema.Schema.Table), schema.Schema.Name, schema.Schema.DeletedAt,
	)
	result, err := q.Query(ctx, sql, name)
	if err != nil {
		return nil, err
	}
	if len(result.Rows) == 0 {
		return nil, errSchemaNotFound(name)
	}
	return scanModel(result.Rows[0])
}

func scanModel(row map[string]any) (*Model, error) {
	m := &Model{
		ID:         fmt.Sprint(row[schema.Schema.ID]),
		Name:       fmt.Sprint(row[schema.Schema.Name]),
		TableName:  fmt.Sprint(row[schema.Schema.TableName]),
		Status:     Status(fmt.Sprint(row[schema.Schema.Status])),
		FieldCount: toInt(row[schema.Schema.FieldCount]),
		Checksum:   fmt.Sprint(row[schema.Schema.JSONChecksum]),
	}
	if ts, ok := row[schema.Schema.CreatedAt].(time.Time); ok {
		m.CreatedAt = ts
	}
	if ts, ok := row[schema.Schema.UpdatedAt].(time.Time); ok {
		m.UpdatedAt = ts
	}
	if trashed, ok := row[schema.Schema.TrashedAt].(time.Time); ok {
		m.TrashedAt = &trashed
	}

	var defBytes []byte
	switch v := row[schema.Schema.Definition].(type) {
	case []byte:
		defBytes = v
	case string:
		defBytes = []byte(v)
	}
	if len(defBytes) > 0 {
		if err := json.Unmarshal(defBytes, &m.Definition); err != nil {
			return nil, apperr.Internal(fmt.Errorf("metabase: decode stored definition: %w", err))
		}
	}

	return m, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// selectColumnRows loads every registered column for schemaName.
func selectColumnRows(ctx context.Context, q sqladapter.Querier, schemaName string) ([]ColumnRecord, error) {
	sql := fmt.Sprintf(
		`SELECT %s, %s, %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		schema.Column.ColumnName, schema.Column.PgType, schema.Column.IsRequired,
		schema.Column.Minimum, schema.Column.Maximum, schema.Column.PatternRegex, schema.Column.IsArray,
		sqladapter.QuoteIdentifier(schema.Column.Table), schema.Column.SchemaName,
	)
	result, err := q.Query(ctx, sql, schemaName)
	if err != nil {
		return nil, err
	}

	columns := make([]ColumnRecord, 0, len(result.Rows))
	for _, row := range result.Rows {
		columns = append(columns, ColumnRecord{
			ColumnName: fmt.Sprint(row[schema.Column.ColumnName]),
			PgType:     fmt.Sprint(row[schema.Column.PgType]),
			IsRequired: row[schema.Column.IsRequired] == true,
			IsArray:    row[schema.Column.IsArray] == true,
		})
	}
	return columns, nil
}

// touchSchemaRow updates definition/field_count/checksum/updated_at for an
// existing, live schema row.
func touchSchemaRow(ctx context.Context, q sqladapter.Querier, name string, def SchemaDefinition, fieldCount int, sum string) error {
	raw, err := json.Marshal(def)
	if err != nil {
		return err
	}
	sql := fmt.Sprintf(
		`UPDATE %s SET %s = $1, %s = $2, %s = $3, %s = now() WHERE %s = $4`,
		sqladapter.QuoteIdentifier(schema.Schema.Table),
		schema.Schema.Definition, schema.Schema.FieldCount, schema.Schema.JSONChecksum, schema.Schema.UpdatedAt,
		schema.Schema.Name,
	)
	_, err = q.Query(ctx, sql, string(raw), fieldCount, sum, name)
	return err
}

// trashSchemaRow soft-deletes a schemas row (deleteOne never drops the
// underlying table, §4.3).
func trashSchemaRow(ctx context.Context, q sqladapter.Querier, name string) error {
	sql := fmt.Sprintf(`UPDATE %s SET %s = now() WHERE %s = $1 AND %s IS NULL`,
		sqladapter.QuoteIdentifier(schema.Schema.Table), schema.Schema.TrashedAt, schema.Schema.Name, schema.Schema.TrashedAt)
	_, err := q.Query(ctx, sql, name)
	return err
}
