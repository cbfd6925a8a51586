// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package database is the per-request façade every route talks to (§4.5): a
select family that reads straight through the Filter compiler, and a mutate
family that runs every write through the Observer Pipeline. Non-mutating
reads never open a transaction; every mutation runs inside exactly one.
*/
package database

import (
	"context"
	"log/slog"

	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/core/observer"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/constants"
	"github.com/forgebase/forge/internal/platform/sec"
)

// Record is the generic row/payload shape threaded through the service —
// the same alias the Observer Pipeline uses, so results can flow from one
// package to the other without conversion.
type Record = observer.Record

// ReadOptions configures a select-family call (§4.5).
type ReadOptions struct {
	Caller  constants.CallerContext
	Trashed constants.TrashedMode
}

// Service is one tenant's Database Service: the adapter it reads/writes
// through, the Observer Pipeline it runs mutations through, and the
// Metabase that resolves model names to live schemas.
type Service struct {
	adapter  sqladapter.Adapter
	pipeline *observer.Pipeline
	meta     *metabase.Metabase
	tenantID string
	logger   *slog.Logger
}

// New constructs a Service bound to one tenant.
func New(adapter sqladapter.Adapter, pipeline *observer.Pipeline, meta *metabase.Metabase, tenantID string, logger *slog.Logger) *Service {
	return &Service{adapter: adapter, pipeline: pipeline, meta: meta, tenantID: tenantID, logger: logger}
}

// resolveModel loads the schema for name, failing with RECORD_NOT_FOUND-
// adjacent Metabase errors if it doesn't exist or is trashed/deleted.
func (s *Service) resolveModel(ctx context.Context, name string) (*metabase.Model, error) {
	return s.meta.SelectOne(ctx, name)
}

// newSystemContext opens a transaction and assembles the SystemContext a
// mutation's pipeline run needs. Callers must Commit or Rollback the
// returned Tx themselves.
func (s *Service) newSystemContext(ctx context.Context, claims *sec.AuthClaims) (*observer.SystemContext, sqladapter.Tx, error) {
	tx, err := s.adapter.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &observer.SystemContext{
		TenantID: s.tenantID,
		Claims:   claims,
		Tx:       tx,
		Driver:   s.adapter.Type(),
		Metabase: s.meta,
		Logger:   s.logger,
	}, tx, nil
}
