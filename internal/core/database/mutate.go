// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"

	"github.com/forgebase/forge/internal/core/filter"
	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/constants"
	"github.com/forgebase/forge/internal/platform/sec"
)

// runMutation resolves model and runs one operation's synchronous rings
// against an already-open SystemContext, without committing or scheduling
// the async tail — the shared primitive both a single mutate call and a
// multi-envelope bulk request build on.
func (s *Service) runMutation(ctx context.Context, sysCtx *observer.SystemContext, model string, op constants.Operation, batch []Record) (*observer.Context, error) {
	m, err := s.resolveModel(ctx, model)
	if err != nil {
		return nil, err
	}
	octx := newObserverContext(m, model, op, batch, sysCtx)
	if err := s.pipeline.RunSync(ctx, octx); err != nil {
		return nil, err
	}
	return octx, nil
}

// mutateAll is the single entry point every mutate-family method funnels
// through: it opens one transaction, runs the Observer Pipeline's
// synchronous rings inside it, commits, and fires the async rings
// detached from the request's own cancellation (§4.4).
func (s *Service) mutateAll(ctx context.Context, claims *sec.AuthClaims, model string, op constants.Operation, batch []Record) ([]Record, error) {
	sysCtx, tx, err := s.newSystemContext(ctx, claims)
	if err != nil {
		return nil, err
	}

	octx, err := s.runMutation(ctx, sysCtx, model, op, batch)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.pipeline.RunAsync(context.WithoutCancel(ctx), octx)
	return octx.PostImages, nil
}

func newObserverContext(m *metabase.Model, modelName string, op constants.Operation, batch []Record, sys *observer.SystemContext) *observer.Context {
	return &observer.Context{
		System:     sys,
		SchemaName: modelName,
		Schema:     m,
		Operation:  op,
		Batch:      batch,
	}
}

// buildIDBatch produces one record per id, each carrying changes merged in
// alongside its id — the shape ring 0's pre-image loader and ring 5's
// writer both expect.
func buildIDBatch(ids []string, changes Record) []Record {
	batch := make([]Record, len(ids))
	for i, id := range ids {
		rec := make(Record, len(changes)+1)
		for k, v := range changes {
			rec[k] = v
		}
		rec[constants.ColumnID] = id
		batch[i] = rec
	}
	return batch
}

// resolveFilterToIDs runs doc through the select path (honoring opts'
// trashed visibility) and returns the matching row IDs, in match order.
func (s *Service) resolveFilterToIDs(ctx context.Context, model string, doc filter.Document, opts ReadOptions) ([]string, error) {
	rows, err := s.selectAnyVia(ctx, s.adapter, model, doc, opts)
	if err != nil {
		return nil, err
	}
	return idsFromRows(rows), nil
}

// # create — only -All/-One are meaningful (there is no existing row to
// resolve by filter/ids for a record that doesn't exist yet, §9).

func (s *Service) CreateAll(ctx context.Context, claims *sec.AuthClaims, model string, records []Record) ([]Record, error) {
	return s.mutateAll(ctx, claims, model, constants.OpCreate, records)
}

func (s *Service) CreateOne(ctx context.Context, claims *sec.AuthClaims, model string, record Record) (Record, error) {
	rows, err := s.CreateAll(ctx, claims, model, []Record{record})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// All is the -All shape shared by update, delete, revert, expire, and
// access (§4.5): caller supplies the whole batch directly.
func (s *Service) All(ctx context.Context, claims *sec.AuthClaims, model string, op constants.Operation, batch []Record) ([]Record, error) {
	return s.mutateAll(ctx, claims, model, op, batch)
}

func (s *Service) One(ctx context.Context, claims *sec.AuthClaims, model string, op constants.Operation, id string, changes Record) (Record, error) {
	rows, err := s.mutateAll(ctx, claims, model, op, buildIDBatch([]string{id}, changes))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.RecordNotFound(model)
	}
	return rows[0], nil
}

func (s *Service) Ids(ctx context.Context, claims *sec.AuthClaims, model string, op constants.Operation, ids []string, changes Record) ([]Record, error) {
	return s.mutateAll(ctx, claims, model, op, buildIDBatch(ids, changes))
}

func (s *Service) Any(ctx context.Context, claims *sec.AuthClaims, model string, op constants.Operation, doc filter.Document, changes Record) ([]Record, error) {
	ids, err := s.resolveFilterToIDs(ctx, model, doc, ReadOptions{Caller: constants.ContextAPI})
	if err != nil {
		return nil, err
	}
	return s.Ids(ctx, claims, model, op, ids, changes)
}

func (s *Service) By404(ctx context.Context, claims *sec.AuthClaims, model string, op constants.Operation, doc filter.Document, changes Record) ([]Record, error) {
	ids, err := s.resolveFilterToIDs(ctx, model, doc, ReadOptions{Caller: constants.ContextAPI})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperr.RecordNotFound(model)
	}
	return s.Ids(ctx, claims, model, op, ids, changes)
}
