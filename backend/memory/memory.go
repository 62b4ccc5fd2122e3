// Package memory implements an in-process KeyValueStore.
// Data lives only as long as the Backend value; it is meant for tests and demos.
package memory

import (
	"context"
	"sync"

	"listkeep/backend"
)

func init() {
	backend.Register("memory", func(backend.Options) (backend.KeyValueStore, error) {
		return New(), nil
	})
}

// Backend implements backend.KeyValueStore with a map guarded by a mutex.
type Backend struct {
	mu     sync.RWMutex
	values map[string]string
	closed bool

	// Fault injection for exercising error paths. When set, the matching
	// operation returns the error without touching the map.
	FailGet error
	FailSet error

	gets int
	sets int
}

// New creates an empty memory backend.
func New() *Backend {
	return &Backend{values: make(map[string]string)}
}

// Get returns the value stored under key
func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return "", false, backend.ErrClosed
	}
	b.gets++
	if b.FailGet != nil {
		return "", false, b.FailGet
	}
	v, ok := b.values[key]
	return v, ok, nil
}

// Set replaces the value stored under key
func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return backend.ErrClosed
	}
	b.sets++
	if b.FailSet != nil {
		return b.FailSet
	}
	b.values[key] = value
	return nil
}

// Close marks the backend closed. Stored values are dropped.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.values = nil
	return nil
}

// Calls reports how many Get and Set calls reached the backend.
func (b *Backend) Calls() (gets, sets int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gets, b.sets
}

// SetFailures configures the injected Get and Set errors; nil clears them.
func (b *Backend) SetFailures(get, set error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.FailGet = get
	b.FailSet = set
}

// Verify interface compliance at compile time
var _ backend.KeyValueStore = (*Backend)(nil)
