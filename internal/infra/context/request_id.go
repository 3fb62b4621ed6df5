package context

import (
	"context"
)

const contextKeyRequestID = contextKey("requestID")

// RequestIDFromContext returns the id the tracing middleware assigned to the request.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(contextKeyRequestID).(string)

	return requestID, ok && requestID != ""
}

// WithRequestID creates a new context carrying the given request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}
