package observability

import (
	"net/http"
	"strconv"
	"time"
)

// RouteFunc names the route a request was served by. It runs after the
// handler, so routers that record their pattern on the request can be used.
type RouteFunc func(r *http.Request) string

// MetricsMiddleware wraps an HTTP handler to record request metrics.
//
// It captures:
//   - basicgate_requests_total (counter): method, status class, and route labels
//   - basicgate_request_duration_seconds (histogram): method and route labels
//
// A nil route func labels every request "unknown" to keep cardinality bounded.
func MetricsMiddleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			label := "unknown"
			if route != nil {
				if name := route(r); name != "" {
					label = name
				}
			}

			// Build a status class label like "2xx", "4xx", "5xx".
			statusStr := strconv.Itoa(sw.status/100) + "xx"

			RequestsTotal.WithLabelValues(r.Method, statusStr, label).Inc()
			RequestDuration.WithLabelValues(r.Method, label).Observe(time.Since(start).Seconds())
		})
	}
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

// WriteHeader captures the status code and delegates to the underlying writer.
func (w *statusWriter) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write delegates to the underlying writer and marks the status as written.
func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
