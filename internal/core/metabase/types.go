// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metabase owns the schemas/columns registries. It turns a JSON
Schema document into a live SQL table, evolves it, and keeps the registry
consistent with the physical database (§4.3).
*/
package metabase

import (
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Status is the lifecycle state of a registered model (§3).
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusSystem  Status = "system"
)

// RelationshipKind is the §3 Column relationship_type enum.
type RelationshipKind string

const (
	RelationshipOwned      RelationshipKind = "owned"
	RelationshipReferenced RelationshipKind = "referenced"
	RelationshipNone       RelationshipKind = "null"
)

// RelationshipExtension is the `x-relationship` vendor extension a property
// may carry (§4.3).
type RelationshipExtension struct {
	Type          RelationshipKind `json:"type"`
	Schema        string           `json:"schema"`
	Column        string           `json:"column"`
	Name          string           `json:"name,omitempty"`
	CascadeDelete bool             `json:"cascadeDelete,omitempty"`
	Required      bool             `json:"required,omitempty"`
}

// PropertyDefinition is one entry of a SchemaDefinition's `properties` map.
type PropertyDefinition struct {
	Type         string                  `json:"type"`
	Format       string                  `json:"format,omitempty"`
	Description  string                  `json:"description,omitempty"`
	MaxLength    *int                    `json:"maxLength,omitempty"`
	Minimum      *float64                `json:"minimum,omitempty"`
	Maximum      *float64                `json:"maximum,omitempty"`
	Pattern      string                  `json:"pattern,omitempty"`
	Enum         []any                   `json:"enum,omitempty"`
	Default      any                     `json:"default,omitempty"`
	Relationship *RelationshipExtension  `json:"x-relationship,omitempty"`
}

// SchemaDefinition is the CREATE/UPDATE payload format of §6: a JSON Schema
// document with `title`, `properties`, `type: "object"`.
type SchemaDefinition struct {
	Title       string                        `json:"title"`
	Description string                        `json:"description,omitempty"`
	Type        string                        `json:"type"`
	Properties  map[string]PropertyDefinition `json:"properties"`
	Required    []string                      `json:"required,omitempty"`
	Table       string                        `json:"table,omitempty"`
}

// IsRequired reports whether field is listed in Required.
func (d SchemaDefinition) IsRequired(field string) bool {
	for _, r := range d.Required {
		if r == field {
			return true
		}
	}
	return false
}

// Model is the in-memory, registry-backed representation of a schemas row.
type Model struct {
	ID          string
	Name        string
	TableName   string
	Status      Status
	Definition  SchemaDefinition
	FieldCount  int
	Checksum    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	TrashedAt   *time.Time
	DeletedAt   *time.Time

	compiled *jsonschema.Schema
}

// IsLive reports whether the model is neither trashed nor deleted.
func (m *Model) IsLive() bool {
	return m.TrashedAt == nil && m.DeletedAt == nil
}

// ColumnRecord is one row of the `columns` registry table (§3).
type ColumnRecord struct {
	ID                   string
	SchemaName           string
	ColumnName           string
	PgType               string
	IsRequired           bool
	DefaultValue         *string
	RelationshipType      RelationshipKind
	RelatedSchema        string
	RelatedColumn        string
	RelationshipName     string
	CascadeDelete        bool
	RequiredRelationship bool
	Minimum              *float64
	Maximum              *float64
	PatternRegex         string
	EnumValues           []any
	IsArray              bool
	Description          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
