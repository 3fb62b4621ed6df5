package authsvc

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces and checks one-way password digests.
type PasswordHasher interface {
	// Hash returns a salted digest of password.
	Hash(password string) (string, error)
	// Verify reports whether password matches digest.
	Verify(password, digest string) bool
}

// BcryptPasswordHasher implements PasswordHasher with bcrypt.
type BcryptPasswordHasher struct {
	Cost int
}

var _ PasswordHasher = (*BcryptPasswordHasher)(nil)

// NewBcryptPasswordHasher creates a hasher with the given cost.
// Costs outside bcrypt's supported range fall back to bcrypt.DefaultCost.
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &BcryptPasswordHasher{Cost: cost}
}

// Hash implements PasswordHasher.Hash.
func (h *BcryptPasswordHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("generate hash: %w", err)
	}

	return string(digest), nil
}

// Verify implements PasswordHasher.Verify. bcrypt compares in constant time.
func (h *BcryptPasswordHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
