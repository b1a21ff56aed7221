// Package http exposes the ledger, planning, dashboard and report services as a JSON
// API.
//
// This file implements the builder used by every handler to write JSON responses and
// the mapping from domain errors to status codes.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"finanzas/internal/core"
	applog "finanzas/internal/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(ErrorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

// ValidationError creates a 422 response listing every failing field.
func ValidationError(v core.ValidationErrors) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(ErrorBody{Error: "validation failed", Fields: v.Fields()})
}

// requestError marks a malformed request: bad JSON, bad query parameter.
type requestError struct {
	msg string
}

func (e requestError) Error() string { return e.msg }

func badRequestf(format string, args ...any) error {
	return requestError{msg: fmt.Sprintf(format, args...)}
}

// ErrorFromDomain maps a service error to its response. Internal failures are logged
// and answered with a generic body.
func ErrorFromDomain(r *http.Request, err error) *JSONResponseBuilder {
	var reqErr requestError
	switch {
	case errors.As(err, &reqErr):
		return BadRequestError(reqErr.msg)
	case errors.Is(err, core.ErrMissingUser):
		return ErrorResponse(http.StatusUnauthorized, "missing X-User-ID header")
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, core.ErrInsufficientFunds):
		return ErrorResponse(http.StatusConflict, err.Error())
	}
	if v, ok := core.AsValidation(err); ok {
		return ValidationError(v)
	}
	if field, ok := singleFieldError(err); ok {
		return ValidationError(core.ValidationErrors{field})
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogError(r.Context(), "Request failed", err,
		applog.FromContext(r.Context()).Component(), operationOf(r.Method),
		applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
	return InternalServerError()
}

func operationOf(method string) string {
	switch method {
	case http.MethodPost:
		return applog.OpCreate
	case http.MethodPut, http.MethodPatch:
		return applog.OpUpdate
	case http.MethodDelete:
		return applog.OpDelete
	}
	return applog.OpRead
}

// singleFieldError recognises the bare sentinels a service returns for one argument.
func singleFieldError(err error) (core.FieldError, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return core.FieldError{Field: "amount", Err: core.ErrInvalidAmount}, true
	case errors.Is(err, core.ErrInvalidDirection):
		return core.FieldError{Field: "direction", Err: core.ErrInvalidDirection}, true
	case errors.Is(err, core.ErrInvalidPeriod):
		return core.FieldError{Field: "period", Err: core.ErrInvalidPeriod}, true
	case errors.Is(err, core.ErrInvalidDate):
		return core.FieldError{Field: "date", Err: core.ErrInvalidDate}, true
	}
	return core.FieldError{}, false
}

// writeError writes the response ErrorFromDomain maps err to.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ErrorFromDomain(r, err).Write(w)
}
