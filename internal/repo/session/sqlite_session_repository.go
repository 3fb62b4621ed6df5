package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/repo/sqlitedb"
)

// SQLiteSessionRepository implements Repository using SQLite as the storage backend.
type SQLiteSessionRepository struct {
	db *sqlitedb.DB
}

var _ Repository = (*SQLiteSessionRepository)(nil)

// SQLiteSessionRepositoryFactory creates a factory function that returns a new SQLiteSessionRepository.
func SQLiteSessionRepositoryFactory(ctx context.Context, db *sqlitedb.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteSessionRepository(ctx, db)
	}
}

// NewSQLiteSessionRepository creates a new SQLiteSessionRepository on db and creates the schema if needed.
func NewSQLiteSessionRepository(ctx context.Context, db *sqlitedb.DB) (*SQLiteSessionRepository, error) {
	err := db.Migrate(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT    PRIMARY KEY,
			user_id    TEXT    NOT NULL,
			token      TEXT    UNIQUE NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`, `CREATE INDEX IF NOT EXISTS sessions_expires_at ON sessions (expires_at)`)
	if err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	return &SQLiteSessionRepository{db: db}, nil
}

// CreateSession implements Repository.CreateSession using SQLite.
func (r *SQLiteSessionRepository) CreateSession(ctx context.Context, session *domain.Session) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, token, created_at, expires_at) VALUES (?, ?, ?, ?, ?)",
		session.ID,
		session.UserID,
		session.Token,
		sqlitedb.UnixMilli(session.CreatedAt),
		sqlitedb.UnixMilli(session.ExpiresAt),
	)
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrSessionTokenExists, err)
		}

		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetSessionByToken implements Repository.GetSessionByToken using SQLite.
func (r *SQLiteSessionRepository) GetSessionByToken(ctx context.Context, token string) (*domain.Session, bool, error) {
	var (
		session              domain.Session
		createdAt, expiresAt int64
	)

	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, token, created_at, expires_at FROM sessions WHERE token = ?",
		token,
	).Scan(&session.ID, &session.UserID, &session.Token, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query session: %w", err)
	}

	session.CreatedAt = sqlitedb.FromUnixMilli(createdAt)
	session.ExpiresAt = sqlitedb.FromUnixMilli(expiresAt)

	return &session, true, nil
}

// DeleteSession implements Repository.DeleteSession using SQLite.
func (r *SQLiteSessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	return nil
}

// DeleteExpiredSessions implements Repository.DeleteExpiredSessions using SQLite.
func (r *SQLiteSessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at != 0 AND expires_at <= ?",
		now.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(n), nil
}

// Close implements Repository.Close. The database handle is shared and closed by its owner.
func (r *SQLiteSessionRepository) Close() error {
	return nil
}
