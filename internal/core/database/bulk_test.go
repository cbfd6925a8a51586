// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"
	"strings"
	"testing"

	"github.com/forgebase/forge/internal/platform/constants"
)

func TestExecuteBulk_CommitsOnceAfterEveryEnvelopeSucceeds(t *testing.T) {
	svc, adapter := newTestService(t)

	envelopes := []BulkEnvelope{
		{Operation: constants.OpCreate, Model: "widgets", Data: []Record{{"name": "first"}}},
		{Operation: constants.OpCreate, Model: "widgets", Data: []Record{{"name": "second"}}},
	}

	results, err := svc.ExecuteBulk(context.Background(), sudoClaims(), envelopes)
	if err != nil {
		t.Fatalf("ExecuteBulk: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if adapter.commits != 1 {
		t.Fatalf("expected exactly one commit across the whole batch, got %d", adapter.commits)
	}
	if adapter.rollbacks != 0 {
		t.Fatalf("expected no rollback on an all-success batch, got %d", adapter.rollbacks)
	}

	inserts := 0
	for _, stmt := range adapter.statements {
		if strings.HasPrefix(stmt, "INSERT INTO") {
			inserts++
		}
	}
	if inserts != 2 {
		t.Fatalf("expected 2 INSERT statements, got %d", inserts)
	}
}

func TestExecuteBulk_RollsBackWholeBatchOnLaterFailure(t *testing.T) {
	svc, adapter := newTestService(t)

	envelopes := []BulkEnvelope{
		{Operation: constants.OpCreate, Model: "widgets", Data: []Record{{"name": "first"}}},
		{Operation: constants.OpUpdate, Model: "does-not-exist", Data: []Record{{"id": "x", "name": "boom"}}},
	}

	_, err := svc.ExecuteBulk(context.Background(), sudoClaims(), envelopes)
	if err == nil {
		t.Fatal("expected the second envelope's unknown model to fail the whole batch")
	}
	if adapter.commits != 0 {
		t.Fatalf("expected no commit when an envelope fails, got %d", adapter.commits)
	}
	if adapter.rollbacks != 1 {
		t.Fatalf("expected exactly one rollback, got %d", adapter.rollbacks)
	}
}

func TestExecuteBulk_ValidatesEveryEnvelopeBeforeExecutingAny(t *testing.T) {
	svc, adapter := newTestService(t)

	envelopes := []BulkEnvelope{
		{Operation: constants.OpCreate, Model: "widgets", Data: []Record{{"name": "first"}}},
		{Operation: constants.OpUpdate, Model: ""}, // missing model, caught by validate()
	}

	_, err := svc.ExecuteBulk(context.Background(), sudoClaims(), envelopes)
	if err == nil {
		t.Fatal("expected validation to reject the second envelope")
	}
	if len(adapter.statements) != 0 {
		t.Fatalf("expected no statement to run before validation completes, got %v", adapter.statements)
	}
}

func TestExecuteBulk_AggregateEnvelopeSeesBatchsOwnWrites(t *testing.T) {
	svc, adapter := newTestService(t)
	adapter.selectRows = []map[string]any{{"count": int64(1)}}

	envelopes := []BulkEnvelope{
		{Operation: constants.OpCreate, Model: "widgets", Data: []Record{{"name": "first"}}},
		{Operation: OpAggregate, Model: "widgets", Aggregate: &AggregateSpec{
			Terms: []AggregateTerm{{Alias: "total", Func: AggCount, Field: "*"}},
		}},
	}

	results, err := svc.ExecuteBulk(context.Background(), sudoClaims(), envelopes)
	if err != nil {
		t.Fatalf("ExecuteBulk: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	rows, ok := results[1].([]Record)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected the aggregate envelope to return its row, got %+v", results[1])
	}
}
