package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/postbox/internal/domain"
)

// MemorySessionRepository implements Repository in process memory.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Session
	byToken map[string]string
}

var _ Repository = (*MemorySessionRepository)(nil)

// MemorySessionRepositoryFactory creates a factory function that returns a new MemorySessionRepository.
func MemorySessionRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return NewMemorySessionRepository(), nil
	}
}

// NewMemorySessionRepository creates an empty MemorySessionRepository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		byID:    make(map[string]*domain.Session),
		byToken: make(map[string]string),
	}
}

// CreateSession implements Repository.CreateSession.
func (r *MemorySessionRepository) CreateSession(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byToken[session.Token]; ok {
		return fmt.Errorf("insert session: %w", domain.ErrSessionTokenExists)
	}

	stored := *session
	r.byID[session.ID] = &stored
	r.byToken[session.Token] = session.ID

	return nil
}

// GetSessionByToken implements Repository.GetSessionByToken.
func (r *MemorySessionRepository) GetSessionByToken(_ context.Context, token string) (*domain.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byToken[token]
	if !ok {
		return nil, false, nil
	}

	found := *r.byID[id]

	return &found, true, nil
}

// DeleteSession implements Repository.DeleteSession.
func (r *MemorySessionRepository) DeleteSession(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.delete(id)

	return nil
}

// DeleteExpiredSessions implements Repository.DeleteExpiredSessions.
func (r *MemorySessionRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int

	for id, session := range r.byID {
		if session.Expired(now) {
			r.delete(id)
			n++
		}
	}

	return n, nil
}

func (r *MemorySessionRepository) delete(id string) {
	if session, ok := r.byID[id]; ok {
		delete(r.byToken, session.Token)
		delete(r.byID, id)
	}
}

// Close implements Repository.Close.
func (r *MemorySessionRepository) Close() error {
	return nil
}
