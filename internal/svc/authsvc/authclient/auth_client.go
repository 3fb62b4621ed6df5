package authclient

import (
	"context"

	"github.com/mkrupp/postbox/internal/domain"
)

// AuthClient defines the interface for resolving session tokens.
type AuthClient interface {
	// Authenticate resolves a session token to the identity that owns it.
	// Returns the identity and true for a live session, or false for an empty,
	// unknown or expired token. Returns an error if the lookup itself fails.
	Authenticate(ctx context.Context, token string) (domain.Identity, bool, error)
}
