// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileValidator turns a SchemaDefinition into a compiled JSON Schema
// validator. Ring 1 (InputValidation) calls Validate on every mutation
// payload against the result, per §9: "validate at ring 1 rather than at
// the transport boundary."
func compileValidator(name string, def SchemaDefinition) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("metabase: marshal definition for %q: %w", name, err)
	}

	var document any
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("metabase: decode definition for %q: %w", name, err)
	}

	resourceID := "forge://schemas/" + name
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceID, document); err != nil {
		return nil, fmt.Errorf("metabase: register schema %q: %w", name, err)
	}

	schema, err := compiler.Compile(resourceID)
	if err != nil {
		return nil, fmt.Errorf("metabase: compile schema %q: %w", name, err)
	}
	return schema, nil
}

// Validate validates payload (already decoded into a generic map/slice/
// primitive tree, per §9's dynamic-payload-typing note) against m's
// compiled JSON Schema.
func (m *Model) Validate(payload any) error {
	if m.compiled == nil {
		return nil
	}
	return m.compiled.Validate(payload)
}
