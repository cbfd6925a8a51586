// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/forgebase/forge/internal/core/sqladapter"
)

// DiffPlan is the add/drop-column plan updateOne would apply, computed
// without mutating anything — the preview step DiffOne exposes (§SPEC_FULL
// 4.3 supplement) and the same code updateOne itself runs.
type DiffPlan struct {
	AddColumns  []ColumnRecord
	DropColumns []string
	AlterSQL    []string
}

// computeDiff compares the registry's existing columns against the new
// definition's properties. Column-type changes on existing columns are not
// supported in this revision (§4.3) — a column present in both sets is left
// untouched even if its declared type changed.
func computeDiff(driver sqladapter.Driver, tableName string, existing []ColumnRecord, def SchemaDefinition, logger *slog.Logger) (*DiffPlan, error) {
	existingByName := make(map[string]ColumnRecord, len(existing))
	for _, col := range existing {
		existingByName[col.ColumnName] = col
	}

	names := make([]string, 0, len(def.Properties))
	for name := range def.Properties {
		if _, reserved := systemFieldSet[name]; reserved {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	desired := make(map[string]struct{}, len(names))
	diff := &DiffPlan{}

	for _, name := range names {
		desired[name] = struct{}{}
		if _, already := existingByName[name]; already {
			continue
		}

		prop := def.Properties[name]
		sqlType, isArray, err := mapPropertyType(driver, prop)
		if err != nil {
			return nil, err
		}

		columnSQL := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
			sqladapter.QuoteIdentifier(tableName), sqladapter.QuoteIdentifier(name), sqlType)
		if def.IsRequired(name) {
			columnSQL += " NOT NULL"
		}
		if prop.Default != nil {
			literal, err := defaultLiteral(prop.Default)
			if err != nil {
				return nil, err
			}
			columnSQL += " DEFAULT " + literal
		}

		diff.AlterSQL = append(diff.AlterSQL, columnSQL)
		diff.AddColumns = append(diff.AddColumns, ColumnRecord{
			ColumnName:   name,
			PgType:       sqlType,
			IsRequired:   def.IsRequired(name),
			Minimum:      prop.Minimum,
			Maximum:      prop.Maximum,
			PatternRegex: prop.Pattern,
			EnumValues:   prop.Enum,
			IsArray:      isArray,
			Description:  prop.Description,
		})
	}

	for name := range existingByName {
		if _, stillWanted := desired[name]; !stillWanted {
			diff.DropColumns = append(diff.DropColumns, name)
			diff.AlterSQL = append(diff.AlterSQL, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
				sqladapter.QuoteIdentifier(tableName), sqladapter.QuoteIdentifier(name)))
		}
	}
	sort.Strings(diff.DropColumns)

	if logger != nil && (len(diff.AddColumns) > 0 || len(diff.DropColumns) > 0) {
		logger.Info("metabase_schema_diff_computed",
			slog.String("table", tableName),
			slog.Int("add", len(diff.AddColumns)),
			slog.Int("drop", len(diff.DropColumns)),
		)
	}

	return diff, nil
}
