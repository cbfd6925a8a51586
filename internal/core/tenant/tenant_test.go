// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"strings"
	"testing"

	"github.com/forgebase/forge/internal/core/sqladapter"
)

type fakeAdapter struct {
	statements []string
	selectRows []map[string]any
	commits    int
	rollbacks  int
}

func (f *fakeAdapter) Query(_ context.Context, sql string, _ ...any) (*sqladapter.Result, error) {
	f.statements = append(f.statements, sql)
	if strings.HasPrefix(strings.TrimSpace(sql), "SELECT") {
		rows := f.selectRows
		f.selectRows = nil // first SELECT (slug probe) finds nothing; later Gets/Lists can set their own rows per test
		return &sqladapter.Result{Rows: rows}, nil
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

func TestCreate_DerivesSlugAndInsertsRow(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := New(adapter)

	m, err := svc.Create(context.Background(), "Acme Corp", sqladapter.Postgres)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Slug != "acme-corp" {
		t.Fatalf("expected slug 'acme-corp', got %q", m.Slug)
	}
	if m.ID == "" {
		t.Fatal("expected a generated id")
	}

	found := false
	for _, stmt := range adapter.statements {
		if strings.HasPrefix(stmt, "INSERT INTO") {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an INSERT statement")
	}
}

func TestCreate_RejectsDuplicateSlug(t *testing.T) {
	adapter := &fakeAdapter{selectRows: []map[string]any{{"id": "existing"}}}
	svc := New(adapter)

	_, err := svc.Create(context.Background(), "Acme Corp", sqladapter.Postgres)
	if err == nil {
		t.Fatal("expected a conflict error for a duplicate slug")
	}
}

func TestCreate_RejectsInvalidDriver(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := New(adapter)

	_, err := svc.Create(context.Background(), "Acme Corp", sqladapter.Driver("mysql"))
	if err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestDestroy_CommitsOnSuccess(t *testing.T) {
	adapter := &fakeAdapter{}
	svc := New(adapter)

	if err := svc.Destroy(context.Background(), "some-id"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if adapter.commits != 1 {
		t.Fatalf("expected exactly one commit, got %d", adapter.commits)
	}
}
