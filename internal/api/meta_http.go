// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api's meta_http.go exposes the Metabase registry over HTTP: defining,
evolving, describing, and previewing changes to a tenant's models (§4.3,
§6 "POST/PATCH/DELETE/GET /api/v1/meta/{model}").
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgebase/forge/internal/core/metabase"
	"github.com/forgebase/forge/internal/platform/middleware"
	requestutil "github.com/forgebase/forge/internal/platform/request"
	"github.com/forgebase/forge/internal/platform/respond"
)

// MetaHandler is the HTTP layer over the Metabase registry.
type MetaHandler struct {
	resolver *Resolver
}

// NewMetaHandler constructs a [MetaHandler].
func NewMetaHandler(resolver *Resolver) *MetaHandler {
	return &MetaHandler{resolver: resolver}
}

// Routes returns a [chi.Router] for the `/meta` mount point.
func (h *MetaHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{model}", h.describe)
	router.Post("/{model}", h.create)
	router.Patch("/{model}", h.update)
	router.Delete("/{model}", h.delete)

	router.Group(func(sudo chi.Router) {
		sudo.Use(middleware.RequireSudo)
		sudo.Get("/{model}/diff", h.diff)
	})

	return router
}

/*
GET /api/v1/meta/{model}.

Description: Returns the registered Model (definition, status, field count,
checksum) for model, reading through the per-tenant cache (§4.3).

Response:
  - 200: metabase.Model
  - 404: SCHEMA_NOT_FOUND
*/
func (h *MetaHandler) describe(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	meta, _, err := h.resolver.Resolve(request.Context(), claims.TenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	model := requestutil.Param(request, "model")
	m, err := meta.SelectOne(request.Context(), model)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, m)
}

/*
GET /api/v1/meta/{model}/diff.

Description: Previews the DDL a submitted definition would apply against
the current registered version, without executing it. Sudo-only: diff
exposes raw DDL strings and is an operator tool, not a tenant-app surface.

Request (Body): metabase.SchemaDefinition

Response:
  - 200: metabase.DiffPlan
  - 403: FORBIDDEN (non-sudo caller)
*/
func (h *MetaHandler) diff(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	meta, _, err := h.resolver.Resolve(request.Context(), claims.TenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var def metabase.SchemaDefinition
	if err := requestutil.DecodeJSON(request, &def); err != nil {
		respond.Error(writer, request, err)
		return
	}

	model := requestutil.Param(request, "model")
	plan, err := meta.DiffOne(request.Context(), model, def)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, plan)
}

/*
POST /api/v1/meta/{model}.

Description: Registers a new model: compiles its definition, generates and
executes the CREATE TABLE DDL, and writes the `schemas`/`columns` registry
rows (§4.3).

Request (Body): metabase.SchemaDefinition

Response:
  - 201: metabase.Model
  - 409: SCHEMA_ALREADY_EXISTS
*/
func (h *MetaHandler) create(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	meta, _, err := h.resolver.Resolve(request.Context(), claims.TenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var def metabase.SchemaDefinition
	if err := requestutil.DecodeJSON(request, &def); err != nil {
		respond.Error(writer, request, err)
		return
	}

	model := requestutil.Param(request, "model")
	m, err := meta.CreateOne(request.Context(), model, def, claims.HasSudo())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, m)
}

/*
PATCH /api/v1/meta/{model}.

Description: Evolves an existing model's definition, applying whatever
additive/destructive DDL the diff between the stored and submitted
definitions requires (§4.3).

Request (Body): metabase.SchemaDefinition

Response:
  - 200: metabase.Model
  - 403: FORBIDDEN (mutating a status="system" model without sudo)
  - 404: SCHEMA_NOT_FOUND
*/
func (h *MetaHandler) update(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	meta, _, err := h.resolver.Resolve(request.Context(), claims.TenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var def metabase.SchemaDefinition
	if err := requestutil.DecodeJSON(request, &def); err != nil {
		respond.Error(writer, request, err)
		return
	}

	model := requestutil.Param(request, "model")
	m, err := meta.UpdateOne(request.Context(), model, def, claims.HasSudo())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, m)
}

/*
DELETE /api/v1/meta/{model}.

Description: Soft-deletes the model's registry row. The underlying table is
never dropped (§4.3).

Response:
  - 204: No Content
  - 403: FORBIDDEN (mutating a status="system" model without sudo)
  - 404: SCHEMA_NOT_FOUND
*/
func (h *MetaHandler) delete(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	meta, _, err := h.resolver.Resolve(request.Context(), claims.TenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	model := requestutil.Param(request, "model")
	if err := meta.DeleteOne(request.Context(), model, claims.HasSudo()); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
