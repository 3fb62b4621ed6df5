package http

import (
	"net/http"
	"strings"

	"github.com/mkrupp/postbox/internal/domain"
	context_ "github.com/mkrupp/postbox/internal/infra/context"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/svc/authsvc/authclient"
)

// AuthorizationHeader carries the session token, either bare or with the Bearer scheme.
const AuthorizationHeader = "Authorization"

// TokenFromRequest extracts the session token from the Authorization header.
// Returns an empty string if the header is missing or blank.
func TokenFromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get(AuthorizationHeader))

	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}

	return header
}

// AuthorizingMiddleware creates middleware that resolves session tokens.
// It requires an AuthClient for token resolution.
// Requests without a live session token in the Authorization header are rejected
// with 401; missing, empty and unknown tokens get the same response.
// On success, the identity is added to the request context.
func AuthorizingMiddleware(
	next http.Handler,
	authClient authclient.AuthClient,
	log logging.Logger,
) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			log.InfoContext(r.Context(), "no token provided")
			_ = WriteError(w, domain.ErrNoAuthToken)

			return
		}

		identity, ok, err := authClient.Authenticate(r.Context(), token)
		if err != nil {
			log.ErrorContext(r.Context(), "authenticate token failed", "error", err)
			_ = WriteError(w, err)

			return
		} else if !ok {
			log.InfoContext(r.Context(), "invalid token")
			_ = WriteError(w, domain.ErrUnauthorized)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithIdentity(r.Context(), identity)))
	})
}
