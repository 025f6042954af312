// Package httpapi exposes the read-only operational surface: health,
// the quality-gate report and the production-readiness verdict.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jackson97300/MIA-IA-system-mentor-q-sub005/internal/quality"
)

// GateReporter is the gate surface the handlers read from.
type GateReporter interface {
	Report() quality.Report
	Readiness(now time.Time) quality.ReadinessReport
}

// NewRouter builds the chi router over a gate.
func NewRouter(gate GateReporter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(logger))

	r.Get("/health", healthHandler)
	r.Get("/quality", qualityHandler(gate))
	r.Get("/readiness", readinessHandler(gate))

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// qualityHandler serves the on-demand gate counter snapshot.
func qualityHandler(gate GateReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(gate.Report())
	}
}

// readinessHandler serves the production-readiness verdict: 200 when
// every rate clears its threshold, 503 otherwise.
func readinessHandler(gate GateReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := gate.Readiness(time.Now().UTC())

		w.Header().Set("Content-Type", "application/json")
		if report.Ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}

// loggingMiddleware logs every request with its status and duration.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
