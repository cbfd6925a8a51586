// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package observer implements the ring-scheduled execution model every
mutation passes through (§4.4): a fixed sequence of ten phases sharing one
mutable ObserverContext, synchronous through ring 5 (the SQL write) and
asynchronous from ring 6 onward.
*/
package observer

import (
	"log/slog"

	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/platform/constants"
	"github.com/forgebase/forge/internal/platform/sec"
)

// SystemContext is the request-scoped handle every ring's observers read
// from: the caller's identity, the open transaction, and the tenant's
// Metabase. The Database service owns one for the lifetime of a request
// (§3, "Ownership").
type SystemContext struct {
	TenantID string
	Claims   *sec.AuthClaims
	Tx       sqladapter.Tx
	Driver   sqladapter.Driver
	Metabase *metabase.Metabase
	Logger   *slog.Logger
}

// IsSudo reports whether the caller holds the sudo elevation claim.
func (s *SystemContext) IsSudo() bool {
	return s.Claims != nil && s.Claims.HasSudo()
}

// HasPrincipal reports whether id is among the caller's principal IDs.
func (s *SystemContext) HasPrincipal(id string) bool {
	return s.Claims != nil && s.Claims.HasPrincipal(id)
}

// Record is the generic shape a mutation payload or a stored row takes:
// the dynamic-payload-typing note of §9 models every record as a plain
// string-keyed map rather than a generated type.
type Record = map[string]any

// Context is the per-invocation, mutable state the pipeline threads through
// every ring (§3, "Observer Context"). Observers read and append to it but
// must not retain a reference past the call that handed it to them.
type Context struct {
	System     *SystemContext
	SchemaName string
	Schema     *metabase.Model
	Operation  constants.Operation

	// Batch is the working set: payloads for create/update, bare IDs (under
	// "id") for delete/revert/expire/access.
	Batch []Record

	// PreImages holds the current row per ID, loaded by ring 0 for every
	// operation except create (§4.4, "Pre-image materialization").
	PreImages map[string]Record

	// PostImages holds each record's state as written in ring 5, keyed the
	// same way as Batch's positional index.
	PostImages []Record

	Errors []error
	Result *sqladapter.Result
}

// Fail appends err to the context's error accumulator. A synchronous
// observer returning a non-nil error aborts the pipeline outright; Fail
// exists for observers (ring 3 business rules in particular) that want to
// accumulate more than one violation before returning.
func (c *Context) Fail(err error) {
	c.Errors = append(c.Errors, err)
}

// Failed reports whether any observer has recorded an error.
func (c *Context) Failed() bool {
	return len(c.Errors) > 0
}

// IDs extracts the "id" field of every batch record, for operations whose
// batch entries reference existing rows (update/delete/revert/expire/access).
func (c *Context) IDs() []string {
	ids := make([]string, 0, len(c.Batch))
	for _, rec := range c.Batch {
		if id, ok := rec[constants.ColumnID].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
