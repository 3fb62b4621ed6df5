package logging

import (
	"context"
	"log/slog"

	context_ "github.com/mkrupp/postbox/internal/infra/context"
)

// ContextHandler wraps another slog.Handler and adds request-scoped values
// (request id, authenticated user) from the context to every record.
type ContextHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*ContextHandler)(nil)

// NewContextHandler creates a new ContextHandler wrapping the given handler.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{h: h}
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if requestID, ok := context_.RequestIDFromContext(ctx); ok {
		r.AddAttrs(slog.Group("request", slog.String("id", requestID)))
	}

	if identity, ok := context_.IdentityFromContext(ctx); ok {
		r.AddAttrs(slog.Group("auth",
			slog.String("userId", identity.UserID),
			slog.String("sessionId", identity.SessionID),
		))
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewContextHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ContextHandler) WithGroup(name string) Handler {
	return NewContextHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
