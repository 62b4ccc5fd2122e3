package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
	"listkeep/backend"
)

func init() {
	backend.Register("sqlite", func(opts backend.Options) (backend.KeyValueStore, error) {
		return New(opts.SQLitePath)
	})
}

// Backend implements backend.KeyValueStore using SQLite
type Backend struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite backend and initializes the database schema
func New(path string) (*Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("could not create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)

	b := &Backend{db: db, path: path}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return b, nil
}

// initSchema creates the key-value table if it doesn't exist
func (b *Backend) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			modified TEXT NOT NULL
		);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Close closes the database connection
func (b *Backend) Close() error {
	return b.db.Close()
}

// Location returns the database file path.
func (b *Backend) Location(string) string {
	return b.path
}

// Get returns the value stored under key
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set replaces the value stored under key in a single UPSERT statement
func (b *Backend) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, modified) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, modified = excluded.modified`,
		key, value, now,
	)
	return err
}

// Modified returns when key was last written. ok is false for unknown keys.
func (b *Backend) Modified(ctx context.Context, key string) (time.Time, bool, error) {
	var modifiedStr string
	err := b.db.QueryRowContext(ctx, "SELECT modified FROM kv WHERE key = ?", key).Scan(&modifiedStr)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, _ := time.Parse(time.RFC3339Nano, modifiedStr)
	return t, true, nil
}

// Verify interface compliance at compile time
var (
	_ backend.KeyValueStore = (*Backend)(nil)
	_ backend.Locator       = (*Backend)(nil)
	_ backend.ModTimer      = (*Backend)(nil)
)
