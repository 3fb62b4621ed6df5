package user

import (
	"context"
	"fmt"
	"sync"

	"github.com/mkrupp/postbox/internal/domain"
)

// MemoryUserRepository implements Repository in process memory.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
}

var _ Repository = (*MemoryUserRepository)(nil)

// MemoryUserRepositoryFactory creates a factory function that returns a new MemoryUserRepository.
func MemoryUserRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return NewMemoryUserRepository(), nil
	}
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

// CreateUser implements Repository.CreateUser.
func (r *MemoryUserRepository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[user.Username]; ok {
		return fmt.Errorf("insert user: %w", domain.ErrUserAlreadyExists)
	}

	if _, ok := r.byID[user.ID]; ok {
		return fmt.Errorf("insert user: %w", domain.ErrUserAlreadyExists)
	}

	stored := *user
	r.byID[user.ID] = &stored
	r.byUsername[user.Username] = user.ID

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername.
func (r *MemoryUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	return r.GetUserByID(ctx, id)
}

// GetUserByID implements Repository.GetUserByID.
func (r *MemoryUserRepository) GetUserByID(_ context.Context, id string) (*domain.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}

	found := *user

	return &found, true, nil
}

// Close implements Repository.Close.
func (r *MemoryUserRepository) Close() error {
	return nil
}
