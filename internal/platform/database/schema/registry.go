// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds the column-name constants for the registry tables
// golang-migrate bootstraps once per tenant: tenants, schemas, columns. It
// is distinct from the per-model data tables Metabase DDLs at runtime,
// whose column names are user-defined and never hardcoded here.
package schema

// TenantTable represents the 'tenants' registry table.
type TenantTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	Driver    string
	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// Tenant is the schema definition for the tenants table.
var Tenant = TenantTable{
	Table:     "tenants",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	Driver:    "driver",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
	DeletedAt: "deleted_at",
}

func (t TenantTable) Columns() []string {
	return []string{t.ID, t.Name, t.Slug, t.Driver, t.CreatedAt, t.UpdatedAt, t.DeletedAt}
}

// SchemaTable represents the 'schemas' registry table (§3 Model entity).
type SchemaTable struct {
	Table        string
	ID           string
	Name         string
	TableName    string
	Status       string
	Definition   string
	FieldCount   string
	JSONChecksum string
	CreatedAt    string
	UpdatedAt    string
	TrashedAt    string
	DeletedAt    string
	AccessRead   string
	AccessEdit   string
	AccessFull   string
	AccessDeny   string
}

// Schema is the schema definition for the schemas table.
var Schema = SchemaTable{
	Table:        "schemas",
	ID:           "id",
	Name:         "name",
	TableName:    "table_name",
	Status:       "status",
	Definition:   "definition",
	FieldCount:   "field_count",
	JSONChecksum: "json_checksum",
	CreatedAt:    "created_at",
	UpdatedAt:    "updated_at",
	TrashedAt:    "trashed_at",
	DeletedAt:    "deleted_at",
	AccessRead:   "access_read",
	AccessEdit:   "access_edit",
	AccessFull:   "access_full",
	AccessDeny:   "access_deny",
}

func (t SchemaTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.TableName, t.Status, t.Definition, t.FieldCount,
		t.JSONChecksum, t.CreatedAt, t.UpdatedAt, t.TrashedAt, t.DeletedAt,
		t.AccessRead, t.AccessEdit, t.AccessFull, t.AccessDeny,
	}
}

// ColumnTable represents the 'columns' registry table (§3 Column entity).
type ColumnTable struct {
	Table                string
	ID                   string
	SchemaName           string
	ColumnName           string
	PgType               string
	IsRequired           string
	DefaultValue         string
	RelationshipType     string
	RelatedSchema        string
	RelatedColumn        string
	RelationshipName     string
	CascadeDelete        string
	RequiredRelationship string
	Minimum              string
	Maximum              string
	PatternRegex         string
	EnumValues           string
	IsArray              string
	Description          string
	CreatedAt            string
	UpdatedAt            string
	AccessRead           string
	AccessEdit           string
	AccessFull           string
	AccessDeny           string
}

// Column is the schema definition for the columns table.
var Column = ColumnTable{
	Table:                "columns",
	ID:                   "id",
	SchemaName:           "schema_name",
	ColumnName:           "column_name",
	PgType:               "pg_type",
	IsRequired:           "is_required",
	DefaultValue:         "default_value",
	RelationshipType:     "relationship_type",
	RelatedSchema:        "related_schema",
	RelatedColumn:        "related_column",
	RelationshipName:     "relationship_name",
	CascadeDelete:        "cascade_delete",
	RequiredRelationship: "required_relationship",
	Minimum:              "minimum",
	Maximum:              "maximum",
	PatternRegex:         "pattern_regex",
	EnumValues:           "enum_values",
	IsArray:              "is_array",
	Description:          "description",
	CreatedAt:            "created_at",
	UpdatedAt:            "updated_at",
	AccessRead:           "access_read",
	AccessEdit:           "access_edit",
	AccessFull:           "access_full",
	AccessDeny:           "access_deny",
}

func (t ColumnTable) Columns() []string {
	return []string{
		t.ID, t.SchemaName, t.ColumnName, t.PgType, t.IsRequired, t.DefaultValue,
		t.RelationshipType, t.RelatedSchema, t.RelatedColumn, t.RelationshipName,
		t.CascadeDelete, t.RequiredRelationship, t.Minimum, t.Maximum,
		t.PatternRegex, t.EnumValues, t.IsArray, t.Description,
		t.CreatedAt, t.UpdatedAt, t.AccessRead, t.AccessEdit, t.AccessFull, t.AccessDeny,
	}
}

// ProtectedNames returns the model names that can never be registered or
// mutated through Metabase because they are the registry's own tables.
func ProtectedNames() []string {
	return []string{Schema.Table, Column.Table, Tenant.Table}
}
