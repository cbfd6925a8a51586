// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api's data_http.go exposes the Database Service's full select/
mutate/bulk/aggregate surface over HTTP. One handler method per HTTP
verb+path combination; each translates the
request into exactly one Database Service call and wraps the result in the
standard envelope via respond.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgebase/forge/internal/core/database"
	"github.com/forgebase/forge/internal/core/filter"
	"github.com/forgebase/forge/internal/platform/apperr"
	"github.com/forgebase/forge/internal/platform/constants"
	requestutil "github.com/forgebase/forge/internal/platform/request"
	"github.com/forgebase/forge/internal/platform/respond"
	"github.com/forgebase/forge/internal/platform/sec"
)

// DataHandler is the HTTP layer over one tenant's Database Service.
type DataHandler struct {
	resolver *Resolver
}

// NewDataHandler constructs a [DataHandler].
func NewDataHandler(resolver *Resolver) *DataHandler {
	return &DataHandler{resolver: resolver}
}

// Routes returns a [chi.Router] for the `/data` mount point.
func (h *DataHandler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/{model}/search", h.search)
	router.Post("/{model}/count", h.count)
	router.Get("/{model}/{id}", h.selectOne)

	router.Post("/{model}", h.createAll)
	router.Put("/{model}", h.upsert)
	router.Post("/{model}/aggregate", h.aggregate)
	router.Post("/{model}/bulk", h.bulk)

	router.Patch("/{model}", h.mutateMany(constants.OpUpdate))
	router.Delete("/{model}", h.mutateMany(constants.OpDelete))

	router.Patch("/{model}/{id}", h.mutateOne(constants.OpUpdate))
	router.Patch("/{model}/{id}/{field}", h.fieldStore)
	router.Delete("/{model}/{id}", h.mutateOne(constants.OpDelete))
	router.Post("/{model}/{id}/revert", h.mutateOne(constants.OpRevert))
	router.Post("/{model}/{id}/expire", h.mutateOne(constants.OpExpire))
	router.Patch("/{model}/{id}/access", h.mutateOne(constants.OpAccess))

	return router
}

func (h *DataHandler) services(request *http.Request) (*database.Service, *requestCtx, error) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		return nil, nil, err
	}
	_, db, err := h.resolver.Resolve(request.Context(), claims.TenantID)
	if err != nil {
		return nil, nil, err
	}
	return db, &requestCtx{claims: claims, model: requestutil.Param(request, "model")}, nil
}

type requestCtx struct {
	claims *sec.AuthClaims
	model  string
}

/*
POST /api/v1/data/{model}/search.

Description: Returns every live (by default) record matching a filter
document (§4.2). No ACL overlay is applied: the result is not narrowed
by the caller's principal.

Request (Body): filter.Document

Response:
  - 200: []database.Record
*/
func (h *DataHandler) search(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var doc filter.Document
	if err := requestutil.DecodeJSON(request, &doc); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := db.SelectAny(request.Context(), rc.model, doc, database.ReadOptions{
		Caller:  constants.ContextAPI,
		Trashed: trashedMode(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rows)
}

/*
POST /api/v1/data/{model}/count.

Description: Counts records matching a filter document, without fetching
their columns.

Request (Body): filter.Document

Response:
  - 200: {count: int64}
*/
func (h *DataHandler) count(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var doc filter.Document
	if err := requestutil.DecodeJSON(request, &doc); err != nil {
		respond.Error(writer, request, err)
		return
	}

	n, err := db.Count(request.Context(), rc.model, doc, database.ReadOptions{
		Caller:  constants.ContextAPI,
		Trashed: trashedMode(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]int64{"count": n})
}

/*
GET /api/v1/data/{model}/{id}.

Description: Fetches a single record by id, throwing RECORD_NOT_FOUND when
it does not exist (or is excluded by the default trashed filter).

Response:
  - 200: database.Record
  - 404: RECORD_NOT_FOUND
*/
func (h *DataHandler) selectOne(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")
	doc := filter.Document{Where: &filter.Condition{
		Keys:   []string{constants.ColumnID},
		Values: map[string]any{constants.ColumnID: id},
	}}

	row, err := db.Select404(request.Context(), rc.model, doc, database.ReadOptions{
		Caller:  constants.ContextAPI,
		Trashed: trashedMode(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, row)
}

/*
POST /api/v1/data/{model}.

Description: Creates a batch of records, running them through the full
Observer Pipeline (§4.4). The request body is always an array, even for a
single record, because create has no natural "existing id" to key a
single-record shorthand on.

Request (Body): []database.Record

Response:
  - 201: []database.Record (with generated ids and system columns)
*/
func (h *DataHandler) createAll(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var batch []database.Record
	if err := requestutil.DecodeJSON(request, &batch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := db.CreateAll(request.Context(), rc.claims, rc.model, batch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, rows)
}

/*
PUT /api/v1/data/{model}.

Description: Splits the batch by id presence — records without an id are
created, records with one are updated — and returns the merged result in
the input order (§4.5, "Upsert").

Request (Body): []database.Record

Response:
  - 200: []database.Record
*/
func (h *DataHandler) upsert(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var batch []database.Record
	if err := requestutil.DecodeJSON(request, &batch); err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := db.Upsert(request.Context(), rc.claims, rc.model, batch)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rows)
}

// aggregateRequest is the `{aggregate, where, groupBy}` body shape for an
// aggregation request.
type aggregateRequest struct {
	Aggregate map[string]map[string]string `json:"aggregate"`
	Where     *filter.Condition            `json:"where,omitempty"`
	GroupBy   []string                     `json:"groupBy,omitempty"`
}

func (r aggregateRequest) toSpec() (database.AggregateSpec, error) {
	spec := database.AggregateSpec{Where: r.Where, GroupBy: r.GroupBy}
	for alias, funcs := range r.Aggregate {
		for fn, field := range funcs {
			spec.Terms = append(spec.Terms, database.AggregateTerm{
				Alias: alias,
				Func:  database.AggregateFunc(fn),
				Field: field,
			})
		}
	}
	return spec, nil
}

/*
POST /api/v1/data/{model}/aggregate.

Description: Computes aggregate terms (count/sum/avg/min/max) over records
matching an optional WHERE, grouped by optional columns (§4.5).

Request (Body): aggregateRequest

Response:
  - 200: []database.Record
*/
func (h *DataHandler) aggregate(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body aggregateRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	spec, err := body.toSpec()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rows, err := db.Aggregate(request.Context(), rc.model, spec)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rows)
}

/*
POST /api/v1/data/{model}/bulk.

Description: Executes a mixed-operation envelope array sequentially inside
a single transaction; any envelope's failure rolls back every earlier one
in the same request (§4.5, "Bulk request").

Request (Body): []database.BulkEnvelope

Response:
  - 200: []any (one entry per envelope, in order)
*/
func (h *DataHandler) bulk(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var envelopes []database.BulkEnvelope
	if err := requestutil.DecodeJSON(request, &envelopes); err != nil {
		respond.Error(writer, request, err)
		return
	}

	results, err := db.ExecuteBulk(request.Context(), rc.claims, envelopes)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, results)
}

// manyRequest is the body shape for a PATCH/DELETE against the model
// collection: either ids or a filter selects the target rows, and changes
// (absent for delete/revert/expire) carries the field updates.
type manyRequest struct {
	Ids     []string         `json:"ids,omitempty"`
	Filter  *filter.Document `json:"filter,omitempty"`
	Changes database.Record  `json:"changes,omitempty"`
	Message string           `json:"message,omitempty"`
}

// mutateMany dispatches a PATCH/DELETE against {model} to the Ids or Any
// Database Service variant depending on which selector the body carries.
func (h *DataHandler) mutateMany(op constants.Operation) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		db, rc, err := h.services(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		var body manyRequest
		if err := requestutil.DecodeJSON(request, &body); err != nil {
			respond.Error(writer, request, err)
			return
		}

		var rows []database.Record
		switch {
		case len(body.Ids) > 0:
			rows, err = db.Ids(request.Context(), rc.claims, rc.model, op, body.Ids, body.Changes)
		case body.Filter != nil:
			rows, err = db.Any(request.Context(), rc.claims, rc.model, op, *body.Filter, body.Changes)
		default:
			err = apperr.BadRequest("MUTATE_MISSING_TARGET", "request must specify ids or filter")
		}
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, rows)
	}
}

// mutateOne dispatches a single-record PATCH/DELETE/POST against
// {model}/{id} to the One Database Service variant.
func (h *DataHandler) mutateOne(op constants.Operation) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		db, rc, err := h.services(request)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		var changes database.Record
		if op != constants.OpDelete && op != constants.OpRevert && op != constants.OpExpire {
			if err := requestutil.DecodeJSON(request, &changes); err != nil {
				respond.Error(writer, request, err)
				return
			}
		}

		id := requestutil.ID(request, "id")
		row, err := db.One(request.Context(), rc.claims, rc.model, op, id, changes)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, row)
	}
}

/*
PATCH /api/v1/data/{model}/{id}/{field}.

Description: Stores a single field's value directly; the request body is
the raw new value, and internally this is an UpdateOne(id, {field: value}).

Request (Body): the new field value, any JSON type

Response:
  - 200: database.Record
*/
func (h *DataHandler) fieldStore(writer http.ResponseWriter, request *http.Request) {
	db, rc, err := h.services(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var value any
	if err := requestutil.DecodeJSON(request, &value); err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.ID(request, "id")
	field := requestutil.Param(request, "field")

	row, err := db.One(request.Context(), rc.claims, rc.model, constants.OpUpdate, id, database.Record{field: value})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, row)
}

// trashedMode reads the `?trashed=include|only` query parameter; absent or
// unrecognized values default to excluding trashed rows.
func trashedMode(request *http.Request) constants.TrashedMode {
	switch request.URL.Query().Get("trashed") {
	case string(constants.TrashedInclude):
		return constants.TrashedInclude
	case string(constants.TrashedOnly):
		return constants.TrashedOnly
	default:
		return constants.TrashedExclude
	}
}
