package domain

import "errors"

var (
	// ErrNoAuthToken is returned when an authentication token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrUnauthorized is returned when a token is missing, malformed, expired or unknown.
	ErrUnauthorized = errors.New("unauthorized")
)

// Identity is the acting user resolved from a session token.
type Identity struct {
	UserID    string
	SessionID string
}

// MessageResponse is the body of responses that only carry a message.
type MessageResponse struct {
	Message string `json:"message"`
}
