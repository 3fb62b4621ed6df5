package authsvc

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/repo/session"
	"github.com/mkrupp/postbox/internal/util/encoding"
)

const (
	// SessionTokenBytes is the amount of randomness in a session token.
	SessionTokenBytes = 32

	maxTokenAttempts = 3
)

// ErrTokenCollision is returned when no unused token could be generated.
var ErrTokenCollision = errors.New("could not generate unique session token")

// SessionStore issues, resolves and revokes sessions.
type SessionStore struct {
	repo session.Repository
	ttl  time.Duration

	// Now is the clock used for creation and expiry checks.
	Now func() time.Time
	// Random is the token entropy source.
	Random io.Reader
}

// NewSessionStore creates a SessionStore on repo. A ttl of 0 issues sessions that never expire.
func NewSessionStore(repo session.Repository, ttl time.Duration) *SessionStore {
	return &SessionStore{
		repo:   repo,
		ttl:    ttl,
		Now:    time.Now,
		Random: rand.Reader,
	}
}

// Create issues a new session for userID with a fresh random token.
func (s *SessionStore) Create(ctx context.Context, userID string) (*domain.Session, error) {
	for range maxTokenAttempts {
		token, err := encoding.RandomCrockfordB32LC(s.Random, SessionTokenBytes)
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("new session id: %w", err)
		}

		now := s.Now().UTC().Truncate(time.Millisecond)

		created := &domain.Session{
			ID:        id.String(),
			UserID:    userID,
			Token:     token,
			CreatedAt: now,
		}
		if s.ttl > 0 {
			created.ExpiresAt = now.Add(s.ttl)
		}

		err = s.repo.CreateSession(ctx, created)
		if errors.Is(err, domain.ErrSessionTokenExists) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}

		return created, nil
	}

	return nil, ErrTokenCollision
}

// FindByToken returns the live session for token. Empty, malformed, unknown
// and expired tokens all yield false.
func (s *SessionStore) FindByToken(ctx context.Context, token string) (*domain.Session, bool, error) {
	if !encoding.IsCrockfordB32LC(token) {
		return nil, false, nil
	}

	found, ok, err := s.repo.GetSessionByToken(ctx, token)
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	if !ok || found.Expired(s.Now()) {
		return nil, false, nil
	}

	return found, true, nil
}

// Delete revokes the session with the given id. Unknown ids are ignored.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// DeleteExpired removes all expired sessions and returns how many were removed.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteExpiredSessions(ctx, s.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return n, nil
}

// Close closes the underlying repository.
func (s *SessionStore) Close() error {
	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("close session repo: %w", err)
	}

	return nil
}
