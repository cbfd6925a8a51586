// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, ring names, and cross-cutting keys
that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuer and header names.
  - Observer Pipeline: ring names and operation kinds.
  - System Preamble: the fixed column names every data table carries.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "forge-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second

	// AsyncObserverTimeout is the default per-observer timeout for rings 6-9.
	AsyncObserverTimeout = 10 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "forgebase.dev"

	// ContextKeyUser is the key used to store user claims in the request context.
	ContextKeyUser = "auth_claims"
)

// # HTTP Header Names

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldSuccess = "success"
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Registry Tables (tenant-local, per §6 of the persisted registry)

const (
	TableSchemas = "schemas"
	TableColumns = "columns"
)

// # Protected Model Names

// ProtectedModelNames may never be passed to Metabase's createOne/deleteOne;
// they are the registries themselves.
var ProtectedModelNames = []string{TableSchemas, TableColumns}

// # System Preamble (fixed columns every data table carries)

const (
	ColumnID         = "id"
	ColumnAccessRead = "access_read"
	ColumnAccessEdit = "access_edit"
	ColumnAccessFull = "access_full"
	ColumnAccessDeny = "access_deny"
	ColumnCreatedAt  = "created_at"
	ColumnUpdatedAt  = "updated_at"
	ColumnTrashedAt  = "trashed_at"
	ColumnDeletedAt  = "deleted_at"
)

// SystemColumns lists the system preamble in DDL emission order.
var SystemColumns = []string{
	ColumnID,
	ColumnAccessRead, ColumnAccessEdit, ColumnAccessFull, ColumnAccessDeny,
	ColumnCreatedAt, ColumnUpdatedAt, ColumnTrashedAt, ColumnDeletedAt,
}

// # Observer Pipeline Rings

// Ring identifies one of the ten fixed execution phases a mutation passes
// through. Rings 0-5 are synchronous and run inside the request's
// transaction; rings 6-9 are scheduled after commit.
type Ring int

const (
	RingDataPreparation Ring = iota // 0
	RingInputValidation             // 1
	RingSecurity                    // 2
	RingBusiness                    // 3
	RingEnrichment                  // 4
	RingDatabase                    // 5
	RingPostDatabase                // 6
	RingAudit                       // 7
	RingIntegration                 // 8
	RingNotification                // 9
)

// LastSyncRing is the highest ring number that runs inside the request
// transaction; everything after it is scheduled post-commit.
const LastSyncRing = RingDatabase

// String returns the conventional ring name.
func (r Ring) String() string {
	switch r {
	case RingDataPreparation:
		return "DataPreparation"
	case RingInputValidation:
		return "InputValidation"
	case RingSecurity:
		return "Security"
	case RingBusiness:
		return "Business"
	case RingEnrichment:
		return "Enrichment"
	case RingDatabase:
		return "Database"
	case RingPostDatabase:
		return "PostDatabase"
	case RingAudit:
		return "Audit"
	case RingIntegration:
		return "Integration"
	case RingNotification:
		return "Notification"
	default:
		return "Unknown"
	}
}

// IsSync reports whether the ring executes inside the request's transaction.
func (r Ring) IsSync() bool {
	return r <= LastSyncRing
}

// # Operation Kinds

// Operation identifies the kind of mutation flowing through the pipeline.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpRevert Operation = "revert"
	OpExpire Operation = "expire"
	OpAccess Operation = "access"
)

// # Read Visibility Modes

// TrashedMode controls whether soft-deleted/expired rows are visible to a read.
type TrashedMode string

const (
	TrashedExclude TrashedMode = "exclude"
	TrashedInclude TrashedMode = "include"
	TrashedOnly    TrashedMode = "only"
)

// # Caller Context Kinds

// CallerContext distinguishes who is issuing a Database Service call. Reads
// carry it in database.ReadOptions; no read path applies an ACL overlay
// based on it.
type CallerContext string

const (
	ContextAPI      CallerContext = "api"
	ContextObserver CallerContext = "observer"
	ContextSystem   CallerContext = "system"
)
