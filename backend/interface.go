package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyValueStore is the persistence primitive used by the list store.
// Values are opaque strings replaced as a whole by Set.
type KeyValueStore interface {
	// Get returns the value stored under key. found is false when the key
	// has never been written; that is not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set replaces the value stored under key. Implementations must make the
	// replacement atomic: a failed Set leaves the previous value intact.
	Set(ctx context.Context, key, value string) error

	// Close releases any resources held by the backend.
	Close() error
}

// Locator is implemented by backends that keep a key's data in a file on disk.
// The returned path is suitable for file system watching.
type Locator interface {
	Location(key string) string
}

// ModTimer is implemented by backends that record when a key was last written.
type ModTimer interface {
	Modified(ctx context.Context, key string) (t time.Time, found bool, err error)
}

// ErrClosed is returned by operations on a backend that has been closed.
var ErrClosed = errors.New("backend is closed")

// ValidateKey rejects keys that no backend can store safely.
// Keys are used as file names by the file backend, so path separators are refused.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("storage key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid storage key: %q", key)
	}
	return nil
}
