package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkrupp/postbox/internal/domain"
)

// RedisSessionRepository implements Repository on Redis. Sessions with an expiry
// are written with a matching TTL, so Redis drops them on its own.
type RedisSessionRepository struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ Repository = (*RedisSessionRepository)(nil)

type redisSession struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Token     string `json:"token"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// RedisSessionRepositoryFactory creates a factory function that returns a new RedisSessionRepository.
func RedisSessionRepositoryFactory(client redis.UniversalClient, keyPrefix string) RepositoryFactory {
	return func() (Repository, error) {
		return NewRedisSessionRepository(client, keyPrefix), nil
	}
}

// NewRedisSessionRepository creates a RedisSessionRepository. The client is
// shared and not closed by the repository.
func NewRedisSessionRepository(client redis.UniversalClient, keyPrefix string) *RedisSessionRepository {
	return &RedisSessionRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisSessionRepository) tokenKey(token string) string {
	return r.keyPrefix + "session:token:" + token
}

func (r *RedisSessionRepository) idKey(id string) string {
	return r.keyPrefix + "session:id:" + id
}

// CreateSession implements Repository.CreateSession using SET NX on the token key.
func (r *RedisSessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	var ttl time.Duration

	stored := redisSession{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		CreatedAt: session.CreatedAt.UnixMilli(),
	}
	if !session.ExpiresAt.IsZero() {
		stored.ExpiresAt = session.ExpiresAt.UnixMilli()
		ttl = max(time.Until(session.ExpiresAt), time.Millisecond)
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.tokenKey(session.Token), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	} else if !ok {
		return fmt.Errorf("insert session: %w", domain.ErrSessionTokenExists)
	}

	if err := r.client.Set(ctx, r.idKey(session.ID), session.Token, ttl).Err(); err != nil {
		return errors.Join(
			fmt.Errorf("index session: %w", err),
			r.client.Del(context.WithoutCancel(ctx), r.tokenKey(session.Token)).Err(),
		)
	}

	return nil
}

// GetSessionByToken implements Repository.GetSessionByToken.
func (r *RedisSessionRepository) GetSessionByToken(ctx context.Context, token string) (*domain.Session, bool, error) {
	data, err := r.client.Get(ctx, r.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	var stored redisSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false, fmt.Errorf("unmarshal session: %w", err)
	}

	session := &domain.Session{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Token:     stored.Token,
		CreatedAt: time.UnixMilli(stored.CreatedAt).UTC(),
	}
	if stored.ExpiresAt != 0 {
		session.ExpiresAt = time.UnixMilli(stored.ExpiresAt).UTC()
	}

	return session, true, nil
}

// DeleteSession implements Repository.DeleteSession.
func (r *RedisSessionRepository) DeleteSession(ctx context.Context, id string) error {
	token, err := r.client.Get(ctx, r.idKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	} else if err != nil {
		return fmt.Errorf("get session index: %w", err)
	}

	if err := r.client.Del(ctx, r.tokenKey(token), r.idKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// DeleteExpiredSessions implements Repository.DeleteExpiredSessions.
// Redis expires the keys itself, so there is never anything left to remove.
func (r *RedisSessionRepository) DeleteExpiredSessions(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close implements Repository.Close.
func (r *RedisSessionRepository) Close() error {
	return nil
}
