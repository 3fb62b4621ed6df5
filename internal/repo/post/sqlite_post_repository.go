package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/postbox/internal/domain"
	"github.com/mkrupp/postbox/internal/repo/sqlitedb"
)

// SQLitePostRepository implements Repository using SQLite as the storage backend.
type SQLitePostRepository struct {
	db *sqlitedb.DB
}

var _ Repository = (*SQLitePostRepository)(nil)

// SQLitePostRepositoryFactory creates a factory function that returns a new SQLitePostRepository.
func SQLitePostRepositoryFactory(ctx context.Context, db *sqlitedb.DB) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLitePostRepository(ctx, db)
	}
}

// NewSQLitePostRepository creates a new SQLitePostRepository on db and creates the schema if needed.
func NewSQLitePostRepository(ctx context.Context, db *sqlitedb.DB) (*SQLitePostRepository, error) {
	err := db.Migrate(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id         TEXT    PRIMARY KEY,
			title      TEXT    NOT NULL,
			content    TEXT    NOT NULL,
			author_id  TEXT    NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`, `CREATE INDEX IF NOT EXISTS posts_author_id ON posts (author_id, created_at)`)
	if err != nil {
		return nil, fmt.Errorf("initialize db: %w", err)
	}

	return &SQLitePostRepository{db: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*domain.Post, error) {
	var (
		post                 domain.Post
		createdAt, updatedAt int64
	)

	if err := row.Scan(&post.ID, &post.Title, &post.Content, &post.AuthorID, &createdAt, &updatedAt); err != nil {
		return nil, err //nolint:wrapcheck
	}

	post.CreatedAt = sqlitedb.FromUnixMilli(createdAt)
	post.UpdatedAt = sqlitedb.FromUnixMilli(updatedAt)

	return &post, nil
}

// CreatePost implements Repository.CreatePost using SQLite.
func (r *SQLitePostRepository) CreatePost(ctx context.Context, post *domain.Post) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO posts (id, title, content, author_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		sqlitedb.UnixMilli(post.CreatedAt),
		sqlitedb.UnixMilli(post.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	return nil
}

// GetPost implements Repository.GetPost using SQLite.
func (r *SQLitePostRepository) GetPost(ctx context.Context, id string) (*domain.Post, bool, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		"SELECT id, title, content, author_id, created_at, updated_at FROM posts WHERE id = ?",
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("query post: %w", err)
	}

	return post, true, nil
}

// ListPostsByAuthor implements Repository.ListPostsByAuthor using SQLite.
func (r *SQLitePostRepository) ListPostsByAuthor(ctx context.Context, authorID string) (_ []*domain.Post, err error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_id, created_at, updated_at FROM posts
		WHERE author_id = ? ORDER BY created_at DESC, id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { err = errors.Join(err, rows.Close()) }()

	posts := make([]*domain.Post, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// UpdatePost implements Repository.UpdatePost using SQLite.
func (r *SQLitePostRepository) UpdatePost(ctx context.Context, post *domain.Post) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ?",
		post.Title,
		post.Content,
		sqlitedb.UnixMilli(post.UpdatedAt),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	return requireAffected(res, "update post")
}

// DeletePost implements Repository.DeletePost using SQLite.
func (r *SQLitePostRepository) DeletePost(ctx context.Context, id string) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	res, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	return requireAffected(res, "delete post")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	} else if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrPostNotFound)
	}

	return nil
}

// Close implements Repository.Close. The database handle is shared and closed by its owner.
func (r *SQLitePostRepository) Close() error {
	return nil
}
