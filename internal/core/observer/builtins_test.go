// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package observer

import (
	"reflect"
	"sort"
	"testing"

	"github.com/forgebase/forge/internal/platform/sec"
)

func TestDecodeIDArray_HandlesEveryStoredShape(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"string-slice", []string{"a", "b"}, []string{"a", "b"}},
		{"any-slice", []any{"a", "b"}, []string{"a", "b"}},
		{"json-text", `["a","b"]`, []string{"a", "b"}},
		{"empty-json-text", "", nil},
		{"json-bytes", []byte(`["a"]`), []string{"a"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := decodeIDArray(c.in)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("decodeIDArray(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestApplyAccessChange_AddsAndRemoves(t *testing.T) {
	current := []string{"user-1", "user-2"}
	change := map[string]any{
		"add":    []any{"user-3"},
		"remove": []any{"user-1"},
	}
	got := applyAccessChange(current, change)
	sort.Strings(got)
	want := []string{"user-2", "user-3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("applyAccessChange = %v, want %v", got, want)
	}
}

func TestWithoutSystemFields_StripsPreamble(t *testing.T) {
	rec := Record{
		"id": "1", "created_at": "now", "title": "Dune", "access_read": []string{},
	}
	got := withoutSystemFields(rec)
	if _, has := got["id"]; has {
		t.Error("expected id to be stripped")
	}
	if _, has := got["created_at"]; has {
		t.Error("expected created_at to be stripped")
	}
	if got["title"] != "Dune" {
		t.Errorf("expected title to survive, got %v", got["title"])
	}
}

func TestPrincipalMayMutate_DenyOverridesFull(t *testing.T) {
	sys := &SystemContext{Claims: &sec.AuthClaims{PrincipalIDs: []string{"user-9"}}}

	allowed := Record{"access_full": []string{"user-9"}, "access_deny": []string{}}
	if !principalMayMutate(sys, allowed) {
		t.Error("expected a principal listed in access_full to be allowed to mutate")
	}

	denied := Record{"access_full": []string{"user-9"}, "access_deny": []string{"user-9"}}
	if principalMayMutate(sys, denied) {
		t.Error("expected access_deny to override access_full")
	}

	none := Record{"access_full": []string{}, "access_edit": []string{}}
	if principalMayMutate(sys, none) {
		t.Error("expected a principal with no grant to be denied")
	}
}
