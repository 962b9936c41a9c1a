package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+16 {
		t.Errorf("request id = %q", seen)
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("header = %q, want %q", got, seen)
	}
}

func TestMiddlewareCountsByStatus(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" })
	statuses := []int{http.StatusOK, http.StatusNotFound, http.StatusBadRequest, http.StatusInternalServerError}
	for _, status := range statuses {
		h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4", got.TotalRequests)
	}
	if got.ClientErrors != 2 {
		t.Errorf("ClientErrors = %d, want 2", got.ClientErrors)
	}
	if got.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", got.ServerErrors)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
