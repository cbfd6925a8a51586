// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metabase

import (
	"context"
	"strings"
	"testing"

	"github.com/forgebase/forge/internal/core/sqladapter"
)

// fakeAdapter is an in-memory sqladapter.Adapter stub recording every
// statement it is asked to run. It never needs real SQL semantics because
// the tests below only assert on control flow (which statements ran, in
// which order) and the shape of rows handed back from a canned SELECT.
type fakeAdapter struct {
	statements []string
	selectRows []map[string]any // returned verbatim for the next SELECT
	failOn     string           // substring of a statement that should error
}

func (f *fakeAdapter) Query(_ context.Context, sql string, _ ...any) (*sqladapter.Result, error) {
	f.statements = append(f.statements, sql)
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return nil, errFake
	}
	if strings.HasPrefix(strings.TrimSpace(sql), "SELECT") {
		return &sqladapter.Result{Rows: f.selectRows}, nil
	}
	return &sqladapter.Result{RowCount: 1}, nil
}

func (f *fakeAdapter) Begin(context.Context) (sqladapter.Tx, error) { return &fakeTx{f}, nil }
func (f *fakeAdapter) Type() sqladapter.Driver                      { return sqladapter.Postgres }
func (f *fakeAdapter) Ping(context.Context) error                   { return nil }
func (f *fakeAdapter) Close() error                                 { return nil }

type fakeTx struct{ *fakeAdapter }

func (t *fakeTx) Commit(context.Context) error   { return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFake = fakeErr("fake: forced failure")

type fakeBus struct{ published []string }

func (b *fakeBus) Publish(_ context.Context, _, model string) error {
	b.published = append(b.published, model)
	return nil
}

func sampleDefinition() SchemaDefinition {
	return SchemaDefinition{
		Title: "Book",
		Type:  "object",
		Properties: map[string]PropertyDefinition{
			"title": {Type: "string"},
			"pages": {Type: "integer"},
		},
		Required: []string{"title"},
	}
}

func TestChecksum_DeterministicAcrossCalls(t *testing.T) {
	def := sampleDefinition()
	a, err := checksum(def)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	b, err := checksum(def)
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if a != b {
		t.Fatalf("checksum not stable: %q vs %q", a, b)
	}
}

func TestChecksum_DiffersOnContentChange(t *testing.T) {
	def := sampleDefinition()
	a, _ := checksum(def)
	def.Properties["extra"] = PropertyDefinition{Type: "boolean"}
	b, _ := checksum(def)
	if a == b {
		t.Fatal("checksum did not change after adding a property")
	}
}

func TestProtected_RejectsRegistryNames(t *testing.T) {
	for _, name := range []string{"schemas", "columns", "tenants"} {
		if !protected(name) {
			t.Errorf("expected %q to be protected", name)
		}
	}
	if protected("books") {
		t.Error("expected a normal model name to not be protected")
	}
}

func TestCreateOne_RejectsProtectedName(t *testing.T) {
	adapter := &fakeAdapter{selectRows: nil}
	mb := New(adapter, &fakeBus{}, "tenant-a", nil)

	_, err := mb.CreateOne(context.Background(), "schemas", sampleDefinition(), false)
	if err == nil {
		t.Fatal("expected an error creating a model named after a protected registry table")
	}
}

func TestCreateOne_HappyPathCachesAndIssuesDDL(t *testing.T) {
	adapter := &fakeAdapter{failOn: "SELECT"} // existence probe must "not find" the model
	mb := New(adapter, &fakeBus{}, "tenant-a", nil)

	m, err := mb.CreateOne(context.Background(), "books", sampleDefinition(), false)
	if err != nil {
		t.Fatalf("CreateOne: %v", err)
	}
	if m.Name != "books" || m.Status != StatusActive {
		t.Fatalf("unexpected model: %+v", m)
	}

	foundCreateTable := false
	for _, stmt := range adapter.statements {
		if strings.HasPrefix(stmt, "CREATE TABLE") {
			foundCreateTable = true
		}
	}
	if !foundCreateTable {
		t.Fatal("expected a CREATE TABLE statement to have been issued")
	}

	cached, err := mb.SelectOne(context.Background(), "books")
	if err != nil {
		t.Fatalf("SelectOne after create: %v", err)
	}
	if cached != m {
		t.Fatal("expected SelectOne to return the cached pointer written by CreateOne")
	}
}

func TestDeleteOne_RequiresSudoForSystemModel(t *testing.T) {
	adapter := &fakeAdapter{selectRows: []map[string]any{{
		"id": "1", "name": "books", "table_name": "books", "status": "system",
		"definition": []byte(`{"title":"Book","type":"object","properties":{}}`),
		"field_count": int64(0), "json_checksum": "x",
	}}}
	bus := &fakeBus{}
	mb := New(adapter, bus, "tenant-a", nil)

	if err := mb.DeleteOne(context.Background(), "books", false); err == nil {
		t.Fatal("expected deleting a system model without sudo to fail")
	}
	if err := mb.DeleteOne(context.Background(), "books", true); err != nil {
		t.Fatalf("expected sudo delete to succeed: %v", err)
	}
	if len(bus.published) != 1 || bus.published[0] != "books" {
		t.Fatalf("expected one cache invalidation for %q, got %v", "books", bus.published)
	}
}

func TestRevertOne_ReservedNotImplemented(t *testing.T) {
	mb := New(&fakeAdapter{}, &fakeBus{}, "tenant-a", nil)
	if err := mb.RevertOne(context.Background(), "books"); err == nil {
		t.Fatal("expected revertOne to report not-implemented")
	}
}
