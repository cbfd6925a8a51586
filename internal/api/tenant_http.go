// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api's tenant_http.go exposes tenant lifecycle management: creating
and destroying the catalog row every other request is ultimately resolved
through. Both routes are sudo-only — tenant provisioning is an operator
action, never a tenant-app-level one.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/forgebase/forge/internal/core/sqladapter"
	"github.com/forgebase/forge/internal/core/tenant"
	"github.com/forgebase/forge/internal/platform/middleware"
	requestutil "github.com/forgebase/forge/internal/platform/request"
	"github.com/forgebase/forge/internal/platform/respond"
)

// TenantHandler is the HTTP layer over the tenant catalog.
type TenantHandler struct {
	service  *tenant.Service
	resolver *Resolver
}

// NewTenantHandler constructs a [TenantHandler].
func NewTenantHandler(service *tenant.Service, resolver *Resolver) *TenantHandler {
	return &TenantHandler{service: service, resolver: resolver}
}

// Routes returns a [chi.Router] for the `/tenants` mount point, gated
// entirely behind sudo.
func (h *TenantHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireSudo)
	router.Post("/", h.create)
	router.Delete("/{id}", h.destroy)
	return router
}

// createTenantRequest is the inbound JSON shape for tenant provisioning.
type createTenantRequest struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
}

/*
POST /api/v1/tenants.

Description: Registers a new tenant in the catalog. In Postgres mode this
shares the existing system pool; in SQLite mode the tenant's own data file
is created lazily on first access through the resolver, not here.

Request (Body): createTenantRequest

Response:
  - 201: tenant.Model
  - 409: tenant slug already in use
*/
func (h *TenantHandler) create(writer http.ResponseWriter, request *http.Request) {
	var body createTenantRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	t, err := h.service.Create(request.Context(), body.Name, sqladapter.Driver(body.Driver))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, t)
}

/*
DELETE /api/v1/tenants/{id}.

Description: Destroys a tenant atomically: the catalog row is soft-deleted
inside its own transaction, and any cached per-tenant services are dropped
so a stale Resolve never serves a destroyed tenant.

Response:
  - 204: No Content
  - 404: tenant not found
*/
func (h *TenantHandler) destroy(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")
	if err := h.service.Destroy(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	h.resolver.InvalidateTenant(id)
	respond.NoContent(writer)
}
