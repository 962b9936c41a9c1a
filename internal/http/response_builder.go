// Package http serves the tracker's JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors onto status codes with a {"detail": ...} body.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
)

const (
	contentTypeJSON = "application/json"
	msgServerError  = "A server error occurred."
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
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

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter. A response
// without payload has no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"` + msgServerError + `"}`))
		return
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

type detailBody struct {
	Detail string `json:"detail"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, detail string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(detailBody{Detail: detail})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(detail string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, detail)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "Not found.")
}

// TooManyRequestsError creates a 429 response for rate limited clients.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Request was throttled. Expected available in 60 seconds.")
}

// InternalServerError creates a 500 response with a generic body.
func InternalServerError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, msgServerError)
}

// StatusFor maps an error kind onto its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidFilter),
		errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrConflict),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err. Server faults are logged with the request context
// and never leak their message to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		InternalServerError().Write(w)
		return
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	ErrorResponse(status, core.Detail(err)).Write(w)
}
