// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/constants"
)

// systemFieldSet is used to silently strip user properties that collide
// with a system-reserved column name (§3 invariant c).
var systemFieldSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(constants.SystemColumns))
	for _, name := range constants.SystemColumns {
		set[name] = struct{}{}
	}
	return set
}()

// plan is the result of translating a SchemaDefinition into DDL statements
// plus the registry rows that describe it.
type plan struct {
	CreateTableSQL string
	ConstraintSQL  []string // trailing ADD CONSTRAINT statements, relationships
	Columns        []ColumnRecord
	Skipped        []string // property names dropped for colliding with a system field
}

// buildCreateTablePlan compiles def into a CREATE TABLE statement (system
// preamble first, §4.3) plus one ColumnRecord per surviving property, in
// deterministic (sorted) column order so DDL output is stable across runs.
func buildCreateTablePlan(driver sqladapter.Driver, tableName string, def SchemaDefinition, logger *slog.Logger) (*plan, error) {
	p := &plan{}

	var columnDefs []string
	columnDefs = append(columnDefs, systemPreambleDDL(driver)...)

	names := make([]string, 0, len(def.Properties))
	for name := range def.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, reserved := systemFieldSet[name]; reserved {
			p.Skipped = append(p.Skipped, name)
			if logger != nil {
				logger.Warn("metabase_property_collides_with_system_field",
					slog.String("model", def.Title), slog.String("property", name))
			}
			continue
		}

		prop := def.Properties[name]
		sqlType, isArray, err := mapPropertyType(driver, prop)
		if err != nil {
			return nil, err
		}

		columnSQL := sqladapter.QuoteIdentifier(name) + " " + sqlType
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
		columnDefs = append(columnDefs, columnSQL)

		p.Columns = append(p.Columns, ColumnRecord{
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

		if prop.Relationship != nil {
			p.Columns[len(p.Columns)-1].RelationshipType = prop.Relationship.Type
			p.Columns[len(p.Columns)-1].RelatedSchema = prop.Relationship.Schema
			p.Columns[len(p.Columns)-1].RelatedColumn = prop.Relationship.Column
			p.Columns[len(p.Columns)-1].RelationshipName = prop.Relationship.Name
			p.Columns[len(p.Columns)-1].CascadeDelete = prop.Relationship.CascadeDelete
			p.Columns[len(p.Columns)-1].RequiredRelationship = prop.Relationship.Required

			constraintName := fmt.Sprintf("fk_%s_%s", tableName, name)
			onDelete := ""
			if prop.Relationship.CascadeDelete {
				onDelete = " ON DELETE CASCADE"
			}
			p.ConstraintSQL = append(p.ConstraintSQL, fmt.Sprintf(
				"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)%s",
				sqladapter.QuoteIdentifier(tableName),
				sqladapter.QuoteIdentifier(constraintName),
				sqladapter.QuoteIdentifier(name),
				sqladapter.QuoteIdentifier(prop.Relationship.Schema),
				sqladapter.QuoteIdentifier(prop.Relationship.Column),
				onDelete,
			))
		}
	}

	p.CreateTableSQL = fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)",
		sqladapter.QuoteIdentifier(tableName), strings.Join(columnDefs, ",\n\t"))

	return p, nil
}

// systemPreambleDDL emits the fixed system preamble columns, first, in the
// order constants.SystemColumns defines.
func systemPreambleDDL(driver sqladapter.Driver) []string {
	uuidType := "UUID"
	jsonArrayType := "JSONB"
	if driver == sqladapter.SQLite {
		uuidType = "TEXT"
		jsonArrayType = "TEXT"
	}
	idDefault := "DEFAULT gen_random_uuid()"
	tsDefault := "now()"
	if driver == sqladapter.SQLite {
		idDefault = ""
		tsDefault = "CURRENT_TIMESTAMP"
	}

	return []string{
		fmt.Sprintf("%s %s PRIMARY KEY %s", sqladapter.QuoteIdentifier(constants.ColumnID), uuidType, idDefault),
		fmt.Sprintf("%s %s", sqladapter.QuoteIdentifier(constants.ColumnAccessRead), jsonArrayType),
		fmt.Sprintf("%s %s", sqladapter.QuoteIdentifier(constants.ColumnAccessEdit), jsonArrayType),
		fmt.Sprintf("%s %s", sqladapter.QuoteIdentifier(constants.ColumnAccessFull), jsonArrayType),
		fmt.Sprintf("%s %s", sqladapter.QuoteIdentifier(constants.ColumnAccessDeny), jsonArrayType),
		fmt.Sprintf("%s TIMESTAMP NOT NULL DEFAULT %s", sqladapter.QuoteIdentifier(constants.ColumnCreatedAt), tsDefault),
		fmt.Sprintf("%s TIMESTAMP NOT NULL DEFAULT %s", sqladapter.QuoteIdentifier(constants.ColumnUpdatedAt), tsDefault),
		fmt.Sprintf("%s TIMESTAMP", sqladapter.QuoteIdentifier(constants.ColumnTrashedAt)),
		fmt.Sprintf("%s TIMESTAMP", sqladapter.QuoteIdentifier(constants.ColumnDeletedAt)),
	}
}

// mapPropertyType implements the §4.3 JSON-Schema-to-SQL type map.
func mapPropertyType(driver sqladapter.Driver, prop PropertyDefinition) (sqlType string, isArray bool, err error) {
	switch prop.Type {
	case "string":
		switch {
		case prop.Format == "uuid":
			if driver == sqladapter.SQLite {
				return "TEXT", false, nil
			}
			return "UUID", false, nil
		case prop.Format == "date-time":
			return "TIMESTAMP", false, nil
		case prop.MaxLength != nil && *prop.MaxLength <= 255:
			return "VARCHAR(" + strconv.Itoa(*prop.MaxLength) + ")", false, nil
		default:
			return "TEXT", false, nil
		}
	case "integer":
		return "INTEGER", false, nil
	case "number":
		return "DECIMAL", false, nil
	case "boolean":
		return "BOOLEAN", false, nil
	case "array", "object":
		if driver == sqladapter.SQLite {
			return "TEXT", prop.Type == "array", nil
		}
		return "JSONB", prop.Type == "array", nil
	default:
		return "", false, fmt.Errorf("metabase: unsupported JSON Schema type %q", prop.Type)
	}
}

// defaultLiteral renders a DEFAULT value, escaping single quotes by
// doubling them (§4.3).
func defaultLiteral(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'", nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "NULL", nil
	default:
		return "", fmt.Errorf("metabase: unsupported default value type %T", value)
	}
}
