package http

import (
	"net/http"

	"github.com/google/uuid"

	context_ "github.com/mkrupp/postbox/internal/infra/context"
	"github.com/mkrupp/postbox/internal/util/encoding"
)

const (
	RequestIDHeader = "X-Request-ID"

	maxRequestIDLength = 128
)

// TracingMiddleware assigns every request an id for log correlation.
// An incoming X-Request-ID of sane length is kept, otherwise a UUIDv7 is generated.
// The id is stored in the request context and echoed in the response header.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		w.Header().Set(RequestIDHeader, requestID)

		ctx := context_.WithRequestID(r.Context(), requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(r *http.Request) string {
	if requestID := r.Header.Get(RequestIDHeader); requestID != "" && len(requestID) <= maxRequestIDLength {
		return requestID
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	return encoding.EncodeCrockfordB32LC(id[:])
}
