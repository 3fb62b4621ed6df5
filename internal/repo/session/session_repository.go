package session

import (
	"context"
	"time"

	"github.com/mkrupp/postbox/internal/domain"
)

// Repository defines the interface for session persistence.
// Implementations store sessions as given; expiry is evaluated by the caller.
type Repository interface {
	// CreateSession stores a new session.
	// Returns ErrSessionTokenExists if the token is already in use.
	CreateSession(ctx context.Context, session *domain.Session) error

	// GetSessionByToken retrieves a session by its token.
	// Returns the session and true if found, or nil and false if not found.
	GetSessionByToken(ctx context.Context, token string) (*domain.Session, bool, error)

	// DeleteSession removes the session with the given id.
	// Deleting an unknown id is not an error.
	DeleteSession(ctx context.Context, id string) error

	// DeleteExpiredSessions removes sessions that expired at or before now
	// and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
