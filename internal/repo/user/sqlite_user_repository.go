package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/infra/logging"
	"github.com/mkrupp/postbox/internal/repo/sqlitedb"
)

// SQLiteUserRepository implements Repository using SQLite as the storage backend.
type SQLiteUserRepository struct {
	db  *sqlitedb.DB
	log logging.Logger
}

var _ Repository = (*SQLiteUserRepository)(nil)

// SQLiteUserRepositoryFactory creates a factory function that returns a new SQLiteUserRepository.
// The factory function implements the RepositoryFactory type.
func SQLiteUserRepositoryFactory(ctx context.Context, db *sqlitedb.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteUserRepository(ctx, db)
	}
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository on db and creates the schema if needed.
func NewSQLiteUserRepository(ctx context.Context, db *sqlitedb.DB) (*SQLiteUserRepository, error) {
	err := db.Migrate(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT    PRIMARY KEY,
			username      TEXT    UNIQUE NOT NULL,
			password_hash TEXT    NOT NULL,
			created_at    INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	return &SQLiteUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sqlite_user_repository"),
	}, nil
}

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		user.ID,
		user.Username,
		user.PasswordHash,
		sqlitedb.UnixMilli(user.CreatedAt),
	)
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetUserByUsername implements Repository.GetUserByUsername using SQLite.
func (r *SQLiteUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.getUser(ctx, "username", username)
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, bool, error) {
	return r.getUser(ctx, "id", id)
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, column, value string) (*domain.User, bool, error) {
	var (
		user      domain.User
		createdAt int64
	)

	//nolint:gosec // column is one of two constants
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+column+" = ?",
		value,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query user: %w", err)
	}

	user.CreatedAt = sqlitedb.FromUnixMilli(createdAt)

	return &user, true, nil
}

// Close implements Repository.Close. The database handle is shared and closed by its owner.
func (r *SQLiteUserRepository) Close() error {
	return nil
}
