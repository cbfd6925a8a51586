// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package filter compiles a declarative, MongoDB-style filter document into a
parameterized SQL WHERE clause plus ORDER BY/LIMIT/OFFSET. It is a pure
function of its input — no I/O, no SQL execution — shared by the Database
service's select family and the virtual-filesystem browsing surface.
*/
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Condition is an ordered JSON object: {field: value|operatorObject} or a
// logical operator mapping ({$and: [...]}). Standard encoding/json decodes
// objects into map[string]any, which loses key order — and key order is
// observable in the compiled output (params are emitted in field-occurrence
// order, per §8 scenario 5). Condition's UnmarshalJSON preserves it.
type Condition struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value bound to key and whether it was present.
func (c *Condition) Get(key string) (any, bool) {
	if c == nil || c.Values == nil {
		return nil, false
	}
	v, ok := c.Values[key]
	return v, ok
}

// Len reports how many keys the condition carries.
func (c *Condition) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Keys)
}

// UnmarshalJSON decodes a JSON object while recording key order. Nested
// objects decode recursively into *Condition; nested arrays decode into
// []any whose object elements are themselves *Condition.
func (c *Condition) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	value, err := decodeOrdered(decoder)
	if err != nil {
		return err
	}
	decoded, ok := value.(*Condition)
	if !ok {
		return fmt.Errorf("filter: expected a JSON object, got %T", value)
	}
	*c = *decoded
	return nil
}

// MarshalJSON round-trips a Condition back into an ordered JSON object,
// writing its keys in their original order.
func (c *Condition) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(c.Values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeOrdered decodes the next JSON value from decoder, preserving object
// key order via *Condition and recursing into arrays and nested objects.
func decodeOrdered(decoder *json.Decoder) (any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	delim, isDelim := token.(json.Delim)
	if !isDelim {
		return token, nil // string, float64, bool, or nil
	}

	switch delim {
	case '{':
		cond := &Condition{Values: map[string]any{}}
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyToken.(string)
			if !ok {
				return nil, fmt.Errorf("filter: object key is not a string: %v", keyToken)
			}
			val, err := decodeOrdered(decoder)
			if err != nil {
				return nil, err
			}
			cond.Keys = append(cond.Keys, key)
			cond.Values[key] = val
		}
		if _, err := decoder.Token(); err != nil { // consume '}'
			return nil, err
		}
		return cond, nil

	case '[':
		var arr []any
		for decoder.More() {
			val, err := decodeOrdered(decoder)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := decoder.Token(); err != nil { // consume ']'
			return nil, err
		}
		return arr, nil
	}

	return nil, fmt.Errorf("filter: unexpected delimiter %q", delim)
}

// Document is the full filter input shape of §4.2.
type Document struct {
	Select []string   `json:"select,omitempty"`
	Where  *Condition `json:"where,omitempty"`
	Order  any        `json:"order,omitempty"`
	Limit  *int       `json:"limit,omitempty"`
	Offset *int       `json:"offset,omitempty"`
}
