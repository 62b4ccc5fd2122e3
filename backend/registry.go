package backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Options carries the settings any registered backend may need.
// Each backend reads only the fields that concern it.
type Options struct {
	SQLitePath     string // Database file for the sqlite backend
	BoltPath       string // Database file for the bolt backend
	FileDir        string // Directory for the file backend
	KeyringService string // Service name for the keyring backend
}

// Constructor opens a KeyValueStore from Options.
type Constructor func(opts Options) (KeyValueStore, error)

// Global registry of backends, filled by each backend package's init().
var (
	registryMu   sync.RWMutex
	constructors = make(map[string]Constructor)
)

// Register makes a backend available under name.
// Backends call this in their init() function; registering a name twice replaces it.
func Register(name string, constructor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	constructors[strings.ToLower(name)] = constructor
}

// Registered returns the names of all registered backends in sorted order.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a backend with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := constructors[strings.ToLower(name)]
	return ok
}

// Open constructs the backend registered under name.
func Open(name string, opts Options) (KeyValueStore, error) {
	registryMu.RLock()
	constructor, ok := constructors[strings.ToLower(name)]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend: %q (available: %s)", name, strings.Join(Registered(), ", "))
	}

	store, err := constructor(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", name, err)
	}
	return store, nil
}
