package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tracker/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		JSON(map[string]int{"id": 7}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	if w.Body.String() != `{"id":7}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoPayload(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_UnencodablePayload(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON(map[string]any{"c": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", core.ErrInvalidFilter), http.StatusBadRequest},
		{fmt.Errorf("%w: bad", core.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("%w: dup", core.ErrConflict), http.StatusBadRequest},
		{fmt.Errorf("%w: x", core.ErrInvalidAmount), http.StatusBadRequest},
		{fmt.Errorf("%w: x", core.ErrInvalidDate), http.StatusBadRequest},
		{fmt.Errorf("%w: who", core.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w: no", core.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: gone", core.ErrNotFound), http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "validation detail is passed through",
			err:        fmt.Errorf("%w: Passwords do not match.", core.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantDetail: "Passwords do not match.",
		},
		{
			name:       "server errors are hidden",
			err:        errors.New("sqlite: database is locked"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: msgServerError,
		},
		{
			name:       "forbidden",
			err:        fmt.Errorf("%w: You do not have permission to perform this action.", core.ErrForbidden),
			wantStatus: http.StatusForbidden,
			wantDetail: "You do not have permission to perform this action.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			WriteError(w, r, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body detailBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Detail != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body.Detail, tt.wantDetail)
			}
		})
	}
}

func TestWriteErrorUnauthorizedSetsChallenge(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	WriteError(w, r, fmt.Errorf("%w: Token is invalid or expired", core.ErrUnauthorized))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("WWW-Authenticate header missing")
	}
}
