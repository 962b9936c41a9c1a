package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tracker/internal/log"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady pings the store with a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				log.FieldComponent, log.ComponentStorage,
				log.FieldError, err.Error())
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("store unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleMetrics exposes the request, rate limit and detection counters as
// plain text, one "name value" pair per line.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	req := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()
	det := s.detector.GetMetrics()

	var b strings.Builder
	for _, m := range []struct {
		name  string
		value int64
	}{
		{"http_requests_total", req.TotalRequests},
		{"http_client_errors_total", req.ClientErrors},
		{"http_server_errors_total", req.ServerErrors},
		{"http_response_time_avg_microseconds", req.AverageResponseTime},
		{"rate_limit_rejections_total", rl.TotalHits},
		{"rate_limit_clients", rl.ClientCount},
		{"security_suspicious_requests_total", det.SuspiciousRequests},
		{"security_invalid_ip_total", det.InvalidIPAttempts},
	} {
		fmt.Fprintf(&b, "%s %d\n", m.name, m.value)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(b.String()))
}
