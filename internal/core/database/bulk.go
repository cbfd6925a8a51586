// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"
	"fmt"

	"github.com/forgebase/forge/internal/core/filter"
	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/constants"
	"github.com/forgebase/forge/internal/platform/sec"
)

// OpAggregate is the bulk-envelope-only pseudo-operation that routes to
// Aggregate instead of the Observer Pipeline (§4.5).
const OpAggregate constants.Operation = "aggregate"

// BulkEnvelope is one entry of a bulk request: an operation against one
// model, carrying whichever of the optional fields that operation needs
// (§4.5, "Bulk request").
type BulkEnvelope struct {
	Operation constants.Operation
	Model     string
	Data      []Record // create/update/access batch payloads
	Filter    *filter.Document
	Ids       []string
	Id        string
	Changes   Record
	Aggregate *AggregateSpec
	Message   string
}

func (e BulkEnvelope) validate() error {
	if e.Model == "" {
		return apperr.BadRequest("BULK_ENVELOPE_MISSING_MODEL", "every bulk envelope requires a model")
	}
	if e.Operation == "" {
		return apperr.BadRequest("BULK_ENVELOPE_MISSING_OPERATION", "every bulk envelope requires an operation")
	}
	if e.Operation != constants.OpCreate && e.Operation != OpAggregate &&
		len(e.Data) == 0 && e.Id == "" && len(e.Ids) == 0 && e.Filter == nil {
		return apperr.BadRequest("BULK_ENVELOPE_MISSING_TARGET", "envelope must specify data, id, ids, or filter")
	}
	return nil
}

// ExecuteBulk validates every envelope up front, then executes them
// sequentially inside a single transaction: a later envelope's failure
// rolls back every earlier one in the same request (§4.5, "Bulk request").
// Aggregate envelopes are read-only and run against that same transaction
// so they observe the batch's own uncommitted writes.
func (s *Service) ExecuteBulk(ctx context.Context, claims *sec.AuthClaims, envelopes []BulkEnvelope) ([]any, error) {
	for i, e := range envelopes {
		if err := e.validate(); err != nil {
			return nil, fmt.Errorf("bulk envelope %d: %w", i, err)
		}
	}

	sysCtx, tx, err := s.newSystemContext(ctx, claims)
	if err != nil {
		return nil, err
	}

	var mutated []*observer.Context
	results := make([]any, len(envelopes))

	for i, e := range envelopes {
		result, octx, err := s.executeOneInTx(ctx, sysCtx, e)
		if err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("bulk envelope %d (%s %s): %w", i, e.Operation, e.Model, err)
		}
		results[i] = result
		if octx != nil {
			mutated = append(mutated, octx)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	for _, octx := range mutated {
		s.pipeline.RunAsync(context.WithoutCancel(ctx), octx)
	}
	return results, nil
}

// executeOneInTx runs a single envelope against sysCtx's open transaction.
// It returns the observer.Context for mutations (so the caller can schedule
// its async tail after the whole batch commits) or nil for a read-only
// aggregate envelope.
func (s *Service) executeOneInTx(ctx context.Context, sysCtx *observer.SystemContext, e BulkEnvelope) (any, *observer.Context, error) {
	if e.Operation == OpAggregate {
		if e.Aggregate == nil {
			return nil, nil, apperr.BadRequest("BULK_ENVELOPE_MISSING_AGGREGATE", "aggregate envelope requires an aggregate spec")
		}
		rows, err := s.aggregateVia(ctx, sysCtx.Tx, e.Model, *e.Aggregate)
		return rows, nil, err
	}

	batch, err := s.resolveEnvelopeBatch(ctx, sysCtx, e)
	if err != nil {
		return nil, nil, err
	}

	octx, err := s.runMutation(ctx, sysCtx, e.Model, e.Operation, batch)
	if err != nil {
		return nil, nil, err
	}
	return octx.PostImages, octx, nil
}

func (s *Service) resolveEnvelopeBatch(ctx context.Context, sysCtx *observer.SystemContext, e BulkEnvelope) ([]Record, error) {
	if e.Operation == constants.OpCreate {
		return e.Data, nil
	}
	switch {
	case len(e.Data) > 0:
		return e.Data, nil
	case e.Id != "":
		return buildIDBatch([]string{e.Id}, e.Changes), nil
	case len(e.Ids) > 0:
		return buildIDBatch(e.Ids, e.Changes), nil
	case e.Filter != nil:
		rows, err := s.selectAnyVia(ctx, sysCtx.Tx, e.Model, *e.Filter, ReadOptions{Caller: constants.ContextAPI})
		if err != nil {
			return nil, err
		}
		return buildIDBatch(idsFromRows(rows), e.Changes), nil
	default:
		return nil, apperr.BadRequest("BULK_ENVELOPE_MISSING_TARGET", "envelope must specify data, id, ids, or filter")
	}
}
