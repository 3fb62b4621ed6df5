package authsvc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mkrupp/postbox/internal/domain"
	context_ "github.com/mkrupp/postbox/internal/infra/context"
	"github.com/mkrupp/postbox/internal/infra/logging"
	http_ "github.com/mkrupp/postbox/internal/infra/transport/http"
	"github.com/mkrupp/postbox/internal/validate"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the authentication service.
// It provides endpoints for login, logout, registration and the current user.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
	cfg     HTTPTransportConfig
	mux     *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(
	authSvc *AuthService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		cfg:     cfg,
	}
	ht.mux = http_.NewServeMux(ht)

	return ht
}

// RegisterRoutes sets up routes for the auth service endpoints:
// - POST /auth/login: Login and get a session token
// - POST /auth/logout: Revoke the session token (authenticated)
// - POST /auth/register: Register a new user
// - GET /users/me: The authenticated user.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", ht.HandleLogin)
	mux.HandleFunc("POST /auth/register", ht.HandleRegister)
	mux.Handle("POST /auth/logout", ht.authorized(ht.HandleLogout))
	mux.Handle("GET /users/me", ht.authorized(ht.HandleMe))
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

func (ht *HTTPTransport) authorized(handler http.HandlerFunc) http.Handler {
	return http_.AuthorizingMiddleware(handler, ht.authSvc, ht.log)
}

// writeError answers with the response mapped from err. Unmapped errors are
// logged here since the client only sees the generic message.
func (ht *HTTPTransport) writeError(ctx context.Context, w http.ResponseWriter, err error) error {
	if status, _ := http_.StatusOf(err); status >= http.StatusInternalServerError {
		ht.log.ErrorContext(ctx, "request failed", "error", err)
	}

	if writeErr := http_.WriteError(w, err); writeErr != nil {
		return fmt.Errorf("%w (write error response: %w)", err, writeErr)
	}

	return err
}

// HandleLogin processes user login requests.
// Expects a JSON body: {"username": ..., "password": ...}
// Returns the new session on successful login.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var input validate.LoginInput

	body := http.MaxBytesReader(w, r.Body, ht.cfg.MaxBodyBytes)
	if err := ht.authSvc.Validator.DecodeJSON(body, &input); err != nil {
		return ht.writeError(r.Context(), w, fmt.Errorf("decode body: %w", err))
	}

	session, err := ht.authSvc.Login(r.Context(), input)
	if err != nil {
		return ht.writeError(r.Context(), w, fmt.Errorf("login user: %w", err))
	}

	return http_.WriteJSON(w, http.StatusOK, session)
}

// HandleRegister processes user registration requests.
// Expects a JSON body: {"username": ..., "password": ...}
// Returns the created user.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var input validate.RegisterInput

	body := http.MaxBytesReader(w, r.Body, ht.cfg.MaxBodyBytes)
	if err := ht.authSvc.Validator.DecodeJSON(body, &input); err != nil {
		return ht.writeError(r.Context(), w, fmt.Errorf("decode body: %w", err))
	}

	created, err := ht.authSvc.Register(r.Context(), input)
	if err != nil {
		return ht.writeError(r.Context(), w, fmt.Errorf("register user: %w", err))
	}

	return http_.WriteJSON(w, http.StatusCreated, created)
}

// HandleLogout processes logout requests.
// Expects the session token in the Authorization header, bare or with the Bearer scheme.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogout(w, r)
}

func (ht *HTTPTransport) handleLogout(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user logout failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged out")
		}
	}(r.Context())

	msg, err := ht.authSvc.Logout(r.Context(), http_.TokenFromRequest(r))
	if err != nil {
		return ht.writeError(r.Context(), w, fmt.Errorf("logout user: %w", err))
	}

	return http_.WriteJSON(w, http.StatusOK, msg)
}

// HandleMe returns the authenticated user.
func (ht *HTTPTransport) HandleMe(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleMe(w, r)
}

func (ht *HTTPTransport) handleMe(w http.ResponseWriter, r *http.Request) (err error) {
	userID, ok := context_.UserIDFromContext(r.Context())
	if !ok {
		return ht.writeError(r.Context(), w, domain.ErrUnauthorized)
	}

	found, err := ht.authSvc.CurrentUser(r.Context(), userID)
	if err != nil {
		return ht.writeError(r.Context(), w, fmt.Errorf("current user: %w", err))
	}

	return http_.WriteJSON(w, http.StatusOK, found)
}
