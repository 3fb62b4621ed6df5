package post

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mkrupp/postbox/internal/domain"
)

// MemoryPostRepository implements Repository in process memory.
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts map[string]*domain.Post
}

var _ Repository = (*MemoryPostRepository)(nil)

// MemoryPostRepositoryFactory creates a factory function that returns a new MemoryPostRepository.
func MemoryPostRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return NewMemoryPostRepository(), nil
	}
}

// NewMemoryPostRepository creates an empty MemoryPostRepository.
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{
		posts: make(map[string]*domain.Post),
	}
}

// CreatePost implements Repository.CreatePost.
func (r *MemoryPostRepository) CreatePost(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[post.ID]; ok {
		return fmt.Errorf("insert post: duplicate id %q", post.ID)
	}

	stored := *post
	r.posts[post.ID] = &stored

	return nil
}

// GetPost implements Repository.GetPost.
func (r *MemoryPostRepository) GetPost(_ context.Context, id string) (*domain.Post, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, false, nil
	}

	found := *post

	return &found, true, nil
}

// ListPostsByAuthor implements Repository.ListPostsByAuthor.
func (r *MemoryPostRepository) ListPostsByAuthor(_ context.Context, authorID string) ([]*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]*domain.Post, 0)

	for _, post := range r.posts {
		if post.AuthorID == authorID {
			found := *post
			posts = append(posts, &found)
		}
	}

	slices.SortFunc(posts, func(a, b *domain.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return cmp.Compare(b.ID, a.ID)
	})

	return posts, nil
}

// UpdatePost implements Repository.UpdatePost.
func (r *MemoryPostRepository) UpdatePost(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[post.ID]
	if !ok {
		return fmt.Errorf("update post: %w", domain.ErrPostNotFound)
	}

	stored.Title = post.Title
	stored.Content = post.Content
	stored.UpdatedAt = post.UpdatedAt

	return nil
}

// DeletePost implements Repository.DeletePost.
func (r *MemoryPostRepository) DeletePost(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("delete post: %w", domain.ErrPostNotFound)
	}

	delete(r.posts, id)

	return nil
}

// Close implements Repository.Close.
func (r *MemoryPostRepository) Close() error {
	return nil
}
