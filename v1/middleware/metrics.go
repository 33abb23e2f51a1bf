package middleware

import (
	"net/http"
	"time"

	"github.com/samaj-registry/registry-backend/monitoring"
)

// statusRecorder captures the response status for instrumentation
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request count and latency per route pattern
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		// Prefer the matched route pattern to keep metric cardinality bounded
		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		monitoring.CountRequest(r.Context(), r.Method, path, recorder.status, time.Since(start))
	})
}
