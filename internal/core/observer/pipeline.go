// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package observer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/forgebase/forge/internal/platform/constants"
)

// Func is the unit of logic one Observer runs for one matching mutation.
type Func func(ctx context.Context, octx *Context) error

// Observer binds a Func to a ring and, optionally, a subset of operations
// and an explicit ordering (§3).
type Observer struct {
	Name       string
	Ring       constants.Ring
	Order      int
	Operations []constants.Operation // nil/empty matches every operation
	Timeout    time.Duration          // async rings only; defaults to constants.AsyncObserverTimeout
	Run        Func

	seq int // registration sequence, used to break Order ties
}

func (o *Observer) matches(op constants.Operation) bool {
	if len(o.Operations) == 0 {
		return true
	}
	for _, want := range o.Operations {
		if want == op {
			return true
		}
	}
	return false
}

// Pipeline holds every registered Observer, indexed by ring, and runs them
// in the deterministic order §4.4 requires.
type Pipeline struct {
	byRing map[constants.Ring][]*Observer
	seq    int
	logger *slog.Logger
}

// New constructs an empty Pipeline. Observers are registered once at
// process start via Register (§3, "discovered at process start").
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{byRing: make(map[constants.Ring][]*Observer), logger: logger}
}

// Register adds o to the pipeline. Within a ring, observers run in
// ascending Order, ties broken by registration order (§4.4).
func (p *Pipeline) Register(o *Observer) {
	p.seq++
	o.seq = p.seq
	p.byRing[o.Ring] = append(p.byRing[o.Ring], o)
	sort.SliceStable(p.byRing[o.Ring], func(i, j int) bool {
		a, b := p.byRing[o.Ring][i], p.byRing[o.Ring][j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.seq < b.seq
	})
}

// RunSync executes rings 0 through constants.LastSyncRing in order, inside
// the caller's already-open transaction. The first observer to return an
// error aborts the whole pipeline; the caller is responsible for rolling
// back the transaction (§4.4, "Transaction discipline").
func (p *Pipeline) RunSync(ctx context.Context, octx *Context) error {
	for ring := constants.Ring(0); ring <= constants.LastSyncRing; ring++ {
		for _, o := range p.byRing[ring] {
			if !o.matches(octx.Operation) {
				continue
			}
			if err := o.Run(ctx, octx); err != nil {
				return fmt.Errorf("observer %q (ring %s): %w", o.Name, ring, err)
			}
			if octx.Failed() {
				return fmt.Errorf("observer %q (ring %s): %w", o.Name, ring, octx.Errors[0])
			}
		}
	}
	return nil
}

// RunAsync schedules rings 6-9 to run after the caller's transaction has
// committed. It returns immediately; each observer runs in its own
// goroutine with an individual timeout, and a failure is logged but never
// surfaced to the caller (§4.4, "Rings 6-9 ... their failures are logged").
func (p *Pipeline) RunAsync(ctx context.Context, octx *Context) {
	for ring := constants.LastSyncRing + 1; ring <= constants.Ring(9); ring++ {
		for _, o := range p.byRing[ring] {
			if !o.matches(octx.Operation) {
				continue
			}
			go p.runAsyncOne(ctx, o, octx)
		}
	}
}

func (p *Pipeline) runAsyncOne(parent context.Context, o *Observer, octx *Context) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = constants.AsyncObserverTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- o.Run(ctx, octx) }()

	select {
	case err := <-done:
		if err != nil && p.logger != nil {
			p.logger.Error("observer_async_failed",
				slog.String("observer", o.Name), slog.String("ring", o.Ring.String()), slog.Any("error", err))
		}
	case <-ctx.Done():
		if p.logger != nil {
			p.logger.Error("observer_async_timeout",
				slog.String("observer", o.Name), slog.String("ring", o.Ring.String()), slog.Duration("timeout", timeout))
		}
	}
}
