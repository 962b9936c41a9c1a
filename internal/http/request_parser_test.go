package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"tracker/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name   string     `json:"name"`
		Amount core.Money `json:"amount"`
		Date   core.Date  `json:"date"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "valid", body: `{"name":"Rent","amount":"12.50","date":"2024-01-05"}`},
		{name: "unknown fields are ignored", body: `{"name":"Rent","extra":1}`},
		{name: "empty body", body: ``, wantErr: core.ErrValidation},
		{name: "malformed", body: `{"name":`, wantErr: core.ErrValidation},
		{name: "bad amount", body: `{"amount":"abc"}`, wantErr: core.ErrInvalidAmount},
		{name: "bad date", body: `{"date":"05/01/2024"}`, wantErr: core.ErrInvalidDate},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, wantErr: core.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(w, r, &p)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSONKeepsPrefilledFields(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"note":"changed"}`))
	dst := struct {
		Type string `json:"type"`
		Note string `json:"note"`
	}{Type: "expense", Note: "old"}

	if err := DecodeJSON(w, r, &dst); err != nil {
		t.Fatal(err)
	}
	if dst.Type != "expense" || dst.Note != "changed" {
		t.Errorf("got %+v", dst)
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.SetPathValue("id", tt.value)
		got, err := PathID(r, "id")
		if tt.wantErr {
			if !errors.Is(err, core.ErrNotFound) {
				t.Errorf("PathID(%q) err = %v, want not found", tt.value, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("PathID(%q) = %d, %v", tt.value, got, err)
		}
	}
}

func TestParseMonthParam(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    string
		wantErr bool
	}{
		{name: "absent", query: url.Values{}},
		{name: "month", query: url.Values{"month": {"2024-03"}}, want: "2024-03-01"},
		{name: "day is normalised", query: url.Values{"month": {"2024-03-17"}}, want: "2024-03-01"},
		{name: "invalid", query: url.Values{"month": {"March"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParam(tt.query, "month")
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidFilter) {
					t.Fatalf("err = %v, want invalid filter", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tt.want == "" {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Fatalf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  groceries  ", "groceries"},
		{"line\x00break\x07", "linebreak"},
		{"tab\tand\nnewline", "tab\tand\nnewline"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
