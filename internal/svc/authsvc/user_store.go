package authsvc

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/repo/user"
)

// UserStore looks up users and checks their credentials.
type UserStore struct {
	repo   user.Repository
	hasher PasswordHasher

	// dummyDigest is verified against when the username is unknown, so both
	// failure causes cost one hash comparison.
	dummyDigest string
}

// NewUserStore creates a UserStore on repo.
func NewUserStore(repo user.Repository, hasher PasswordHasher) (*UserStore, error) {
	dummyDigest, err := hasher.Hash(rand.Text())
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &UserStore{
		repo:        repo,
		hasher:      hasher,
		dummyDigest: dummyDigest,
	}, nil
}

// FindByCredentials returns the user if username exists and password matches its digest.
// An unknown username and a wrong password both yield false.
func (s *UserStore) FindByCredentials(ctx context.Context, username, password string) (*domain.User, bool, error) {
	found, ok, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	if !ok {
		s.hasher.Verify(password, s.dummyDigest)

		return nil, false, nil
	}

	if !s.hasher.Verify(password, found.PasswordHash) {
		return nil, false, nil
	}

	return found, true, nil
}

// Find returns the user with the given id.
func (s *UserStore) Find(ctx context.Context, id string) (*domain.User, bool, error) {
	found, ok, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	return found, ok, nil
}

// Create hashes password and stores a new user.
// Returns ErrUserAlreadyExists if the username is taken.
func (s *UserStore) Create(ctx context.Context, username, password string) (*domain.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("new user id: %w", err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created := &domain.User{
		ID:           id.String(),
		Username:     username,
		PasswordHash: digest,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := s.repo.CreateUser(ctx, created); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

// Close closes the underlying repository.
func (s *UserStore) Close() error {
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
