package postsvc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mkrupp/postbox/internal/domain"
	context_ "github.com/mkrupp/postbox/internal/infra/context"
	"github.com/mkrupp/postbox/internal/infra/logging"
	http_ "github.com/mkrupp/postbox/internal/infra/transport/http"
	"github.com/mkrupp/postbox/internal/svc/authsvc/authclient"
	"github.com/mkrupp/postbox/internal/validate"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the post service.
// Every route requires an authenticated identity.
type HTTPTransport struct {
	postSvc    PostService
	authClient authclient.AuthClient
	validator  *validate.Validator
	log        logging.Logger
	cfg        HTTPTransportConfig
	mux        *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires a PostService for the use cases and an AuthClient to resolve session tokens.
func NewHTTPTransport(
	postSvc PostService,
	authClient authclient.AuthClient,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	ht := &HTTPTransport{
		postSvc:    postSvc,
		authClient: authClient,
		validator:  validate.New(),
		log:        logging.GetLogger("svc.postsvc.http_transport"),
		cfg:        cfg,
	}
	ht.mux = http_.NewServeMux(ht)

	return ht
}

// RegisterRoutes sets up routes for the post service endpoints:
// - GET /posts: Posts of the caller, newest first
// - POST /posts: Create a post
// - GET /posts/{id}: Fetch a post
// - PUT /posts/{id}: Update an owned post
// - DELETE /posts/{id}: Delete an owned post.
func (ht *HTTPTransport) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /posts", ht.authorized(ht.HandleList))
	mux.Handle("POST /posts", ht.authorized(ht.HandleCreate))
	mux.Handle("GET /posts/{id}", ht.authorized(ht.HandleGet))
	mux.Handle("PUT /posts/{id}", ht.authorized(ht.HandleUpdate))
	mux.Handle("DELETE /posts/{id}", ht.authorized(ht.HandleDelete))
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

func (ht *HTTPTransport) authorized(handler http.HandlerFunc) http.Handler {
	return http_.AuthorizingMiddleware(handler, ht.authClient, ht.log)
}

func (ht *HTTPTransport) writeError(ctx context.Context, w http.ResponseWriter, err error) error {
	if status, _ := http_.StatusOf(err); status >= http.StatusInternalServerError {
		ht.log.ErrorContext(ctx, "request failed", "error", err)
	}

	if writeErr := http_.WriteError(w, err); writeErr != nil {
		return fmt.Errorf("%w (write error response: %w)", err, writeErr)
	}

	return err
}

// handle runs fn with the caller's user id and logs its outcome.
func (ht *HTTPTransport) handle(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(ctx context.Context, userID string) error,
) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))
	ctx := r.Context()

	userID, ok := context_.UserIDFromContext(ctx)
	if !ok {
		_ = ht.writeError(ctx, w, domain.ErrUnauthorized)

		return
	}

	if err := fn(ctx, userID); err != nil {
		log.DebugContext(ctx, action+" failed", "error", err)
	} else {
		log.DebugContext(ctx, action+" done")
	}
}

// HandleList returns the posts of the authenticated user.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	ht.handle(w, r, "post list", func(ctx context.Context, userID string) error {
		posts, err := ht.postSvc.List(ctx, userID)
		if err != nil {
			return ht.writeError(ctx, w, fmt.Errorf("list posts: %w", err))
		}

		return http_.WriteJSON(w, http.StatusOK, posts)
	})
}

// HandleCreate creates a post owned by the authenticated user.
// Expects a JSON body: {"title": ..., "content": ...}
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ht.handle(w, r, "post create", func(ctx context.Context, userID string) error {
		var input validate.PostCreateInput

		body := http.MaxBytesReader(w, r.Body, ht.cfg.MaxBodyBytes)
		if err := ht.validator.DecodeJSON(body, &input); err != nil {
			return ht.writeError(ctx, w, fmt.Errorf("decode body: %w", err))
		}

		created, err := ht.postSvc.Create(ctx, userID, input)
		if err != nil {
			return ht.writeError(ctx, w, fmt.Errorf("create post: %w", err))
		}

		return http_.WriteJSON(w, http.StatusCreated, created)
	})
}

// HandleGet returns the post named by the path.
func (ht *HTTPTransport) HandleGet(w http.ResponseWriter, r *http.Request) {
	ht.handle(w, r, "post get", func(ctx context.Context, _ string) error {
		found, err := ht.postSvc.Get(ctx, r.PathValue("id"))
		if err != nil {
			return ht.writeError(ctx, w, fmt.Errorf("get post: %w", err))
		}

		return http_.WriteJSON(w, http.StatusOK, found)
	})
}

// HandleUpdate applies a partial update to the post named by the path.
// Expects a JSON body with at least one of "title" and "content".
func (ht *HTTPTransport) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ht.handle(w, r, "post update", func(ctx context.Context, userID string) error {
		id := r.PathValue("id")

		var input validate.PostUpdateInput

		body := http.MaxBytesReader(w, r.Body, ht.cfg.MaxBodyBytes)
		if decodeErr := ht.validator.DecodeJSON(body, &input); decodeErr != nil {
			// A missing or foreign post outranks a bad body.
			if _, err := ht.postSvc.GetOwned(ctx, id, userID); err != nil {
				return ht.writeError(ctx, w, fmt.Errorf("update post: %w", err))
			}

			return ht.writeError(ctx, w, fmt.Errorf("decode body: %w", decodeErr))
		}

		updated, err := ht.postSvc.Update(ctx, id, userID, input)
		if err != nil {
			return ht.writeError(ctx, w, fmt.Errorf("update post: %w", err))
		}

		return http_.WriteJSON(w, http.StatusOK, updated)
	})
}

// HandleDelete removes the post named by the path.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ht.handle(w, r, "post delete", func(ctx context.Context, userID string) error {
		msg, err := ht.postSvc.Delete(ctx, r.PathValue("id"), userID)
		if err != nil {
			return ht.writeError(ctx, w, fmt.Errorf("delete post: %w", err))
		}

		return http_.WriteJSON(w, http.StatusOK, msg)
	})
}
