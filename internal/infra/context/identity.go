package context

import (
	"context"

	"github.com/mkrupp/postbox/internal/domain"
)

const contextKeyIdentity = contextKey("identity")

// IdentityFromContext extracts the authenticated identity from the context.
// Returns the identity and true if present, or a zero identity and false if not present.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(contextKeyIdentity).(domain.Identity)

	return identity, ok
}

// UserIDFromContext is a shortcut returning only the user id of the authenticated identity.
func UserIDFromContext(ctx context.Context) (string, bool) {
	identity, ok := IdentityFromContext(ctx)
	if !ok || identity.UserID == "" {
		return "", false
	}

	return identity.UserID, true
}

// WithIdentity creates a new context carrying the identity resolved from a session token.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity, identity)
}
