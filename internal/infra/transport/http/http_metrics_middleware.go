package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mkrupp/postbox/internal/infra/metrics"
)

// MetricsMiddleware records request counts and latencies labelled with the
// matched route pattern. It must wrap the ServeMux directly so the pattern is visible.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		metrics.HTTPRequests.WithLabelValues(r.Method, route(r), strconv.Itoa(rec.Status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route(r)).Observe(time.Since(start).Seconds())
	})
}
