// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package observer

import (
	"context"
	"testing"

	"github.com/forgebase/forge/internal/platform/constants"
)

func TestPipeline_RunsRingsInOrderAndRespectsTieBreak(t *testing.T) {
	var order []string
	p := New(nil)
	p.Register(&Observer{Name: "b", Ring: constants.RingDataPreparation, Order: 1, Run: func(context.Context, *Context) error {
		order = append(order, "b")
		return nil
	}})
	p.Register(&Observer{Name: "a", Ring: constants.RingDataPreparation, Order: 1, Run: func(context.Context, *Context) error {
		order = append(order, "a")
		return nil
	}})
	p.Register(&Observer{Name: "first", Ring: constants.RingSecurity, Order: 0, Run: func(context.Context, *Context) error {
		order = append(order, "first")
		return nil
	}})

	octx := &Context{Operation: constants.OpCreate}
	if err := p.RunSync(context.Background(), octx); err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if got := order; len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "first" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestPipeline_OperationsFilterSkipsNonMatchingObservers(t *testing.T) {
	ran := false
	p := New(nil)
	p.Register(&Observer{
		Name: "delete-only", Ring: constants.RingBusiness,
		Operations: []constants.Operation{constants.OpDelete},
		Run: func(context.Context, *Context) error { ran = true; return nil },
	})

	octx := &Context{Operation: constants.OpCreate}
	if err := p.RunSync(context.Background(), octx); err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if ran {
		t.Fatal("expected the delete-only observer to be skipped for a create operation")
	}
}

func TestPipeline_SyncErrorAbortsRemainingRings(t *testing.T) {
	reachedRing5 := false
	p := New(nil)
	p.Register(&Observer{Name: "fail-early", Ring: constants.RingSecurity, Run: func(context.Context, *Context) error {
		return errFail
	}})
	p.Register(&Observer{Name: "db", Ring: constants.RingDatabase, Run: func(context.Context, *Context) error {
		reachedRing5 = true
		return nil
	}})

	octx := &Context{Operation: constants.OpCreate}
	if err := p.RunSync(context.Background(), octx); err == nil {
		t.Fatal("expected RunSync to surface the ring 2 failure")
	}
	if reachedRing5 {
		t.Fatal("expected ring 5 to never run after an earlier ring failed")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFail = fakeErr("forced failure")
