package domain

import (
	"errors"
	"time"
)

// ErrSessionTokenExists is returned by session repositories when a token collides
// with a live session.
var ErrSessionTokenExists = errors.New("session token already exists")

// Session is the server-side record behind an opaque bearer token.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`

	// ExpiresAt is the zero time for sessions without a TTL.
	ExpiresAt time.Time `json:"-"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
