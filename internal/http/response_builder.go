// Package http provides the JSON API server and its handlers.
//
// This file implements the builder used by every handler to write JSON
// responses and the mapping from domain error kinds to status codes.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"kantong/internal/core"
	"kantong/internal/log"
)

// kindRateLimited is the error kind written by the rate limiter. It never
// comes out of the domain.
const kindRateLimited core.Kind = "rate_limited"

// kindUnauthorized is written when the gateway did not forward an identity.
const kindUnauthorized core.Kind = "unauthorized"

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable kind and a human-readable message.
type ErrorDetail struct {
	Kind    core.Kind         `json:"kind"`
	Message string            `json:"message"`
	Fields  []core.FieldError `json:"fields,omitempty"`
	Sum     *int              `json:"sum,omitempty"`
}

// JSONResponseBuilder provides a fluent API for writing JSON responses.
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

// Created writes v with status 201.
func Created(w http.ResponseWriter, v any) {
	NewJSONResponse().Status(http.StatusCreated).Body(v).Write(w)
}

// Message writes a {"message": ...} body with status 200.
func Message(w http.ResponseWriter, msg string) {
	OK(w, map[string]string{"message": msg})
}

// ErrorResponse creates an error response with the given kind and message.
func ErrorResponse(statusCode int, kind core.Kind, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}})
}

// StatusFor maps a domain error kind to its HTTP status code.
func StatusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindForbidden:
		return http.StatusForbidden
	case kindUnauthorized:
		return http.StatusUnauthorized
	case kindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps err to a status code and writes the error body. Internal
// errors are logged and their message is not exposed.
func WriteError(ctx context.Context, w http.ResponseWriter, err error, operation string) {
	kind := core.KindOf(err)
	detail := ErrorDetail{Kind: kind, Message: err.Error()}

	var (
		ve *core.ValidationError
		de *core.Error
	)
	switch {
	case errors.As(err, &ve):
		detail.Message = ve.Message
		detail.Fields = ve.Fields
		detail.Sum = ve.Sum
	case errors.As(err, &de):
		detail.Message = de.Error()
	}

	if kind == core.KindInternal {
		detail.Message = "internal server error"
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Request failed", err, operation, nil)
	}

	NewJSONResponse().Status(StatusFor(kind)).Body(ErrorBody{Error: detail}).Write(w)
}
