// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/forgebase/forge/internal/core/filter"
	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/sec"
)

// fakeAdapter is a minimal in-memory sqladapter.Adapter stub: it records
// every statement issued and serves canned rows for SELECT, the same
// control-flow-only approach the metabase package's own tests use.
type fakeAdapter struct {
	statements []string
	selectRows []map[string]any
	failOn     string
	commits    int
	rollbacks  int
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

func (t *fakeTx) Commit(context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rollbacks++; return nil }

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFake = fakeErr("fake: forced failure")

// newTestService builds a Service backed by its own fakeAdapter, with a
// "widgets" model already registered in a Metabase sharing that adapter —
// mirroring the way metabase_test.go seeds a model via CreateOne against a
// fake that fails every SELECT, so the existence probe finds nothing and
// CreateOne proceeds.
func newTestService(t *testing.T) (*Service, *fakeAdapter) {
	t.Helper()
	adapter := &fakeAdapter{}
	meta := metabase.New(adapter, nil, "tenant-a", nil)

	probe := &fakeAdapter{failOn: "SELECT"}
	seedMeta := metabase.New(probe, nil, "tenant-a", nil)
	_, err := seedMeta.CreateOne(context.Background(), "widgets", sampleDefinition(), false)
	if err != nil {
		t.Fatalf("seed CreateOne: %v", err)
	}
	// Register the same model a second time, now on the Metabase under test:
	// adapter returns no rows for the existence probe, so CreateOne proceeds
	// and leaves the compiled model in meta's own cache for later lookups.
	if _, err := meta.CreateOne(context.Background(), "widgets", sampleDefinition(), false); err != nil {
		t.Fatalf("CreateOne against test adapter: %v", err)
	}
	// The seeding CreateOne above already ran its own begin/commit and DDL/
	// registry INSERTs against adapter; reset its recorder so each test only
	// observes statements and commit/rollback counts from its own calls.
	adapter.statements = nil
	adapter.commits = 0
	adapter.rollbacks = 0

	pipeline := observer.New(slog.Default())
	observer.RegisterDefaults(pipeline)

	return New(adapter, pipeline, meta, "tenant-a", slog.Default()), adapter
}

func sampleDefinition() metabase.SchemaDefinition {
	return metabase.SchemaDefinition{
		Title: "Widget",
		Type:  "object",
		Properties: map[string]metabase.PropertyDefinition{
			"name": {Type: "string"},
		},
	}
}

func sudoClaims() *sec.AuthClaims {
	return &sec.AuthClaims{IsSudo: true}
}

func filterDoc() filter.Document {
	return filter.Document{}
}

func TestCreateAll_IssuesInsertAndReturnsPostImages(t *testing.T) {
	svc, adapter := newTestService(t)

	rows, err := svc.CreateAll(context.Background(), sudoClaims(), "widgets", []Record{{"name": "gizmo"}})
	if err != nil {
		t.Fatalf("CreateAll: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row back, got %d", len(rows))
	}
	if _, ok := rows[0]["id"]; !ok {
		t.Fatal("expected ring 4 to have generated an id")
	}

	found := false
	for _, stmt := range adapter.statements {
		if strings.HasPrefix(stmt, "INSERT INTO") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an INSERT statement to have been issued")
	}
	if adapter.commits != 1 {
		t.Fatalf("expected exactly one commit, got %d", adapter.commits)
	}
}

func TestUpsert_SplitsByIDPresenceAndPreservesOrder(t *testing.T) {
	svc, _ := newTestService(t)

	batch := []Record{
		{"name": "no-id-record"},
		{"id": "existing-1", "name": "has-id-record"},
	}
	rows, err := svc.Upsert(context.Background(), sudoClaims(), "widgets", batch)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows back, got %d", len(rows))
	}
	if rows[0]["name"] != "no-id-record" {
		t.Fatalf("expected create slot to stay first, got %+v", rows[0])
	}
	if rows[1]["id"] != "existing-1" {
		t.Fatalf("expected update slot to keep its id, got %+v", rows[1])
	}
}

func TestSelectAny_BuildsParameterizedSQL(t *testing.T) {
	svc, adapter := newTestService(t)
	adapter.selectRows = []map[string]any{{"id": "1", "name": "gizmo"}}

	rows, err := svc.SelectAny(context.Background(), "widgets", filterDoc(), ReadOptions{})
	if err != nil {
		t.Fatalf("SelectAny: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	last := adapter.statements[len(adapter.statements)-1]
	if !strings.HasPrefix(last, "SELECT") || !strings.Contains(last, `"widgets"`) {
		t.Fatalf("unexpected select statement: %q", last)
	}
}
