// Package file implements a KeyValueStore that keeps each key in its own JSON file.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"listkeep/backend"
)

func init() {
	backend.Register("file", func(opts backend.Options) (backend.KeyValueStore, error) {
		return New(Config{Dir: opts.FileDir})
	})
}

// Config holds file backend configuration
type Config struct {
	Dir string // Directory holding one file per key
}

// Backend implements backend.KeyValueStore for file-based storage
type Backend struct {
	dir    string // Resolved absolute path
	mu     sync.Mutex
	closed bool
}

// New creates a new file backend
func New(cfg Config) (*Backend, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	// Resolve relative paths
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	return &Backend{dir: dir}, nil
}

// Close closes the backend
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Location returns the file that holds key.
func (b *Backend) Location(key string) string {
	return filepath.Join(b.dir, key+".json")
}

// Get reads the file for key. A missing file means the key was never written.
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := backend.ValidateKey(key); err != nil {
		return "", false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return "", false, backend.ErrClosed
	}

	data, err := os.ReadFile(b.Location(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read file: %w", err)
	}
	return string(data), true, nil
}

// Set writes value to a temp file in the same directory and renames it over
// the key's file, so readers see either the old or the new value.
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := backend.ValidateKey(key); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return backend.ErrClosed
	}

	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := filepath.Join(b.dir, "."+key+"."+uuid.New().String()+".tmp")
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, b.Location(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}

// Modified returns the modification time of the key's file.
func (b *Backend) Modified(ctx context.Context, key string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	info, err := os.Stat(b.Location(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return info.ModTime(), true, nil
}

// Verify interface compliance at compile time
var (
	_ backend.KeyValueStore = (*Backend)(nil)
	_ backend.Locator       = (*Backend)(nil)
	_ backend.ModTimer      = (*Backend)(nil)
)
