package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/postbox/internal/infra/logging"
)

// LoggingMiddleware logs every request at DEBUG and its response at a level
// derived from the status: ERROR for 5xx, WARN for 4xx, INFO otherwise.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log.DebugContext(r.Context(), "request", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
		))

		rec := NewResponseRecorder(w)
		next.ServeHTTP(rec, r)

		level := logging.LevelInfo

		switch {
		case rec.Status >= http.StatusInternalServerError:
			level = logging.LevelError
		case rec.Status >= http.StatusBadRequest:
			level = logging.LevelWarn
		}

		log.Log(r.Context(), level, "response", slog.Group("http",
			"uri", r.RequestURI,
			"method", r.Method,
			"route", route(r),
			"status", rec.Status,
			"bytes_sent", rec.BytesSent,
			"duration_ms", time.Since(start).Milliseconds(),
		))
	})
}
