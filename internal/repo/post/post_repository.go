package post

import (
	"context"

	"github.com/mkrupp/postbox/internal/domain"
)

// Repository defines the interface for post persistence.
type Repository interface {
	// CreatePost stores a new post.
	CreatePost(ctx context.Context, post *domain.Post) error

	// GetPost retrieves a post by id.
	// Returns the post and true if found, or nil and false if not found.
	GetPost(ctx context.Context, id string) (*domain.Post, bool, error)

	// ListPostsByAuthor returns the posts of one author, newest first.
	ListPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error)

	// UpdatePost overwrites title, content and updatedAt of a stored post.
	// Returns ErrPostNotFound if the post does not exist.
	UpdatePost(ctx context.Context, post *domain.Post) error

	// DeletePost removes a post.
	// Returns ErrPostNotFound if the post does not exist.
	DeletePost(ctx context.Context, id string) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
