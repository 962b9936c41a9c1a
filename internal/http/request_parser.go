// Package http serves the tracker's JSON API.
//
// This file implements utilities for parsing and validating HTTP request data:
// JSON bodies, path identifiers and optional query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tracker/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// DecodeJSON reads one JSON object from the request body into dst. Fields
// already set on dst survive when the body omits them, which is how partial
// updates are applied. Unknown fields are ignored.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: Request body is empty.", core.ErrValidation)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: Request body exceeds %d bytes.", core.ErrValidation, maxErr.Limit)
		case errors.Is(err, core.ErrInvalidAmount), errors.Is(err, core.ErrInvalidDate):
			return err
		default:
			return fmt.Errorf("%w: JSON parse error - %s", core.ErrValidation, err.Error())
		}
	}
	return nil
}

// PathID reads a positive integer path parameter. Anything else is reported
// as a missing resource, the way a router with typed segments would.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: Not found.", core.ErrNotFound)
	}
	return id, nil
}

// pathInt reads an integer path parameter with the same rules as PathID.
func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: Not found.", core.ErrNotFound)
	}
	return v, nil
}

// ParseMonthParam reads an optional month query parameter in YYYY-MM or
// YYYY-MM-DD form. An absent or empty value yields nil.
func ParseMonthParam(query url.Values, key string) (*core.Date, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := core.ParseMonth(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be in YYYY-MM format", core.ErrInvalidFilter, key)
	}
	return &d, nil
}

// sanitizeInput removes control characters other than tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
