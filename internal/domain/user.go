package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserAlreadyExists is returned when trying to create a user with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrUserNotFound is returned when looking up a non-existent user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned when the username/password combination is incorrect
	// or when further login attempts for the username are blocked.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents an account that can log in and own posts.
type User struct {
	ID           string    `json:"id"`        // Opaque identifier (UUIDv7)
	Username     string    `json:"username"`  // Login username, unique
	PasswordHash string    `json:"-"`         // bcrypt digest, never serialized
	CreatedAt    time.Time `json:"createdAt"` // Account creation time (UTC)
}
