package postsvc

import (
	"context"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/validate"
)

// DeletedMessage is the result message of a successful delete.
const DeletedMessage = "Deleted"

// PostService defines the post use cases. Mutations are gated on ownership:
// a missing post is reported before a foreign one, and both before invalid input.
type PostService interface {
	// Create validates the input and stores a new post owned by authorID.
	// Returns a *domain.ValidationError if the input violates the post-create rules.
	Create(ctx context.Context, authorID string, input validate.PostCreateInput) (*domain.Post, error)

	// List returns the posts of authorID, newest first.
	List(ctx context.Context, authorID string) ([]*domain.Post, error)

	// Get returns the post with the given id.
	// Returns ErrPostNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.Post, error)

	// GetOwned returns the post with the given id if authorID owns it.
	// Returns ErrPostNotFound if it does not exist and ErrForbidden if it belongs to someone else.
	GetOwned(ctx context.Context, id, authorID string) (*domain.Post, error)

	// Update applies a partial update to a post owned by authorID and moves updatedAt forward.
	Update(ctx context.Context, id, authorID string, input validate.PostUpdateInput) (*domain.Post, error)

	// Delete removes a post owned by authorID.
	Delete(ctx context.Context, id, authorID string) (*domain.MessageResponse, error)

	// Close releases resources held by the service.
	Close() error
}
