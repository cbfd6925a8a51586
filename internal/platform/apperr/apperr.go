// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Forge.

It provides a rich error type that bridges the gap between low-level Metabase,
Observer Pipeline, and Filter Compiler errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: A small fixed set of HTTP-mapped kinds, each carrying stable sub-codes.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Forge API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "RECORD_NOT_FOUND", "MODEL_REQUIRES_SUDO").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors or operator diagnostics.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Bad Request (400)

// BadRequest creates a 400 [AppError] with a stable machine code.
//
// Example:
//
//	apperr.BadRequest("OPERATION_MISSING_ID", "update requires an id")
func BadRequest(code, msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// ValidationFailed creates a 400 [AppError] carrying one [FieldError] per
// failing JSON Schema constraint (ring 1 of the Observer Pipeline).
func ValidationFailed(details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "one or more fields failed validation",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Unauthenticated (401)

// Unauthenticated creates a 401 [AppError] for a missing or invalid principal.
func Unauthenticated(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHENTICATED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Forbidden (403)

// Forbidden creates a 403 [AppError] with a specific sub-code
// (e.g. "ACCESS_DENIED", "MODEL_REQUIRES_SUDO").
func Forbidden(code, msg string) *AppError {
	return &AppError{
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// RequiresSudo creates the 403 [AppError] raised when a caller without the
// sudo elevation claim attempts to mutate a system-status model.
func RequiresSudo(modelName string) *AppError {
	return &AppError{
		Code:       "MODEL_REQUIRES_SUDO",
		Message:    fmt.Sprintf("model %q is protected and requires elevated privileges", modelName),
		HTTPStatus: http.StatusForbidden,
	}
}

// # Not Found (404)

// NotFound creates a 404 [AppError] with a specific sub-code
// (e.g. "RECORD_NOT_FOUND", "SCHEMA_NOT_FOUND", "MODEL_NOT_FOUND").
func NotFound(code, msg string) *AppError {
	return &AppError{
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusNotFound,
	}
}

// RecordNotFound creates a 404 [AppError] for a missing data row.
func RecordNotFound(model string) *AppError {
	return &AppError{
		Code:       "RECORD_NOT_FOUND",
		Message:    fmt.Sprintf("no record found in %q matching the given filter", model),
		HTTPStatus: http.StatusNotFound,
	}
}

// SchemaNotFound creates a 404 [AppError] for a missing or soft-deleted model.
func SchemaNotFound(name string) *AppError {
	return &AppError{
		Code:       "SCHEMA_NOT_FOUND",
		Message:    fmt.Sprintf("schema %q does not exist", name),
		HTTPStatus: http.StatusNotFound,
	}
}

// # Conflict (409)

// Conflict creates a 409 [AppError] for unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// # Unprocessable (422)

// Unprocessable creates a 422 [AppError] with a specific sub-code
// (e.g. "FILTER_UNSUPPORTED_OPERATOR", "FILTER_BETWEEN_REQUIRES_ARRAY").
func Unprocessable(code, msg string) *AppError {
	return &AppError{
		Code:       code,
		Message:    msg,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// # Internal (500)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL",
		Message:    "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
