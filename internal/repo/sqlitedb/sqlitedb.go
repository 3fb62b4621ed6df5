// Package sqlitedb opens the SQLite database shared by the SQLite repositories.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/postbox/internal/infra/logging"
)

// Config holds configuration for the SQLite database.
type Config struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/postbox.db"`
	// BusyTimeout is how long a connection waits for a lock held by another connection
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// DB is a database handle plus the lock that serializes writers.
type DB struct {
	*sql.DB

	// WriteLock is held around every write; go-sqlite does not support concurrent writes.
	WriteLock *sync.Mutex
}

// Open opens (and creates, if missing) the database at cfg.DatabasePath.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	log := logging.GetLogger("repo.sqlitedb").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.DatabasePath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.DebugContext(ctx, "db opened")

	return Wrap(db), nil
}

// Wrap adopts an already opened *sql.DB.
func Wrap(db *sql.DB) *DB {
	return &DB{
		DB:        db,
		WriteLock: new(sync.Mutex),
	}
}

// Migrate executes the given schema statements in order.
func (db *DB) Migrate(ctx context.Context, stmts ...string) error {
	db.WriteLock.Lock()
	defer db.WriteLock.Unlock()

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	default:
		return false
	}
}

// UnixMilli converts t to the integer representation stored in the database.
// The zero time is stored as 0.
func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixMilli()
}

// FromUnixMilli is the inverse of UnixMilli and always returns UTC.
func FromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}
