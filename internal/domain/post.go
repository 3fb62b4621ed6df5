package domain

import (
	"errors"
	"time"
)

var (
	// ErrPostNotFound is returned when a post id does not resolve to a stored post.
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden is returned when the caller does not own the post it tries to mutate.
	ErrForbidden = errors.New("forbidden")
)

// Post is a piece of content owned by the user who created it.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostChanges holds the fields of a partial post update. Nil fields are left untouched.
type PostChanges struct {
	Title   *string
	Content *string
}

// Apply writes the non-nil changes onto the post.
func (c PostChanges) Apply(post *Post) {
	if c.Title != nil {
		post.Title = *c.Title
	}

	if c.Content != nil {
		post.Content = *c.Content
	}
}
