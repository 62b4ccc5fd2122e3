// Package liststore persists named lists of items as a single serialized blob
// in a key-value backend.
//
// Every mutating operation reads the current blob, applies the change, and
// writes the whole store back. Operations take the caller's snapshot and
// return a new one; the caller's snapshot is only used as the starting point
// when the persisted blob cannot be read.
package liststore

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"listkeep/backend"
	"listkeep/internal/utils"
)

// DefaultKey is the backend key holding the serialized store.
const DefaultKey = "lists"

// DuplicatePolicy decides what CreateList does with a name that already exists.
type DuplicatePolicy string

const (
	// DuplicateReject refuses to create a second list with the same name.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateAllow appends the new list regardless of existing names.
	DuplicateAllow DuplicatePolicy = "allow"
)

// ParseDuplicatePolicy converts a config value to a DuplicatePolicy.
// An empty string selects DuplicateReject.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateReject:
		return DuplicateReject, nil
	case DuplicateAllow:
		return DuplicateAllow, nil
	default:
		return "", fmt.Errorf("invalid duplicate policy: %q (must be 'reject' or 'allow')", s)
	}
}

// Logger is the subset of utils.Logger the store writes to.
type Logger interface {
	Debug(msgOrFormat string, args ...interface{})
	Warn(msgOrFormat string, args ...interface{})
	Error(msgOrFormat string, args ...interface{})
}

// Options configures a ListStore. Zero values select the defaults.
type Options struct {
	Key        string          // Backend key, DefaultKey if empty
	Duplicates DuplicatePolicy // DuplicateReject if empty
	Logger     Logger          // utils.GetLogger() if nil
}

// ListStore owns the persisted collection of lists.
type ListStore struct {
	kv   backend.KeyValueStore
	key  string
	dups DuplicatePolicy
	log  Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	subsMu  sync.Mutex
	subs    map[int]chan Store
	nextSub int
}

// New creates a ListStore on top of kv.
func New(kv backend.KeyValueStore, opts Options) *ListStore {
	s := &ListStore{
		kv:   kv,
		key:  opts.Key,
		dups: opts.Duplicates,
		log:  opts.Logger,
		subs: make(map[int]chan Store),
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.dups == "" {
		s.dups = DuplicateReject
	}
	if s.log == nil {
		s.log = utils.GetLogger()
	}
	return s
}

// Key returns the backend key holding the store.
func (s *ListStore) Key() string {
	return s.key
}

// Duplicates returns the duplicate-name policy in effect.
func (s *ListStore) Duplicates() DuplicatePolicy {
	return s.dups
}

// Load reads the persisted store. An absent key yields an empty store and no error.
// On failure it returns an empty store and a *StorageError with Op OpRead.
func (s *ListStore) Load(ctx context.Context) (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	store, err := s.read(ctx)
	if err != nil {
		s.log.Error("Error loading lists: %v", err)
		return Store{}, err
	}
	s.log.Debug("Loaded %d lists from key %q", len(store), s.key)
	return store, nil
}

// CreateList appends an empty list called name and persists the store.
// Under DuplicateReject an existing list with the same name yields a
// *DuplicateListError and nothing is written.
func (s *ListStore) CreateList(ctx context.Context, snap Store, name string) (Store, error) {
	return s.mutate(ctx, snap, "create list", func(st Store) (Store, error) {
		if s.dups == DuplicateReject && st.index(name) >= 0 {
			return nil, &DuplicateListError{Name: name}
		}
		return append(st, List{Name: name, Items: []Item{}}), nil
	})
}

// DeleteList removes every list called name and persists the store.
// Deleting a name that does not exist is not an error.
func (s *ListStore) DeleteList(ctx context.Context, snap Store, name string) (Store, error) {
	return s.mutate(ctx, snap, "delete list", func(st Store) (Store, error) {
		out := st[:0]
		for _, l := range st {
			if l.Name != name {
				out = append(out, l)
			}
		}
		return out, nil
	})
}

// AddItem appends an item to the first list called listName and persists the store.
// A missing list yields a *ListNotFoundError and nothing is written.
func (s *ListStore) AddItem(ctx context.Context, snap Store, listName, itemName string) (Store, error) {
	return s.mutate(ctx, snap, "add item", func(st Store) (Store, error) {
		i := st.index(listName)
		if i < 0 {
			return nil, &ListNotFoundError{Name: listName}
		}
		st[i].Items = append(st[i].Items, Item{ItemName: itemName})
		return st, nil
	})
}

// DeleteItem removes every item called itemName from the first list called
// listName and persists the store. A missing list yields a *ListNotFoundError.
func (s *ListStore) DeleteItem(ctx context.Context, snap Store, listName, itemName string) (Store, error) {
	return s.mutate(ctx, snap, "delete item", func(st Store) (Store, error) {
		i := st.index(listName)
		if i < 0 {
			return nil, &ListNotFoundError{Name: listName}
		}
		kept := make([]Item, 0, len(st[i].Items))
		for _, it := range st[i].Items {
			if it.ItemName != itemName {
				kept = append(kept, it)
			}
		}
		st[i].Items = kept
		return st, nil
	})
}

// Export returns the persisted blob exactly as stored, or "[]" when absent.
func (s *ListStore) Export(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return "", &StorageError{Op: OpRead, Key: s.key, Err: err}
	}
	if !found {
		return "[]", nil
	}
	return blob, nil
}

// Import replaces the persisted store with blob after checking that it decodes.
func (s *ListStore) Import(ctx context.Context, blob string) (Store, error) {
	store, err := Decode(blob)
	if err != nil {
		return nil, fmt.Errorf("invalid store data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(ctx, store); err != nil {
		s.log.Error("Error importing lists: %v", err)
		return store, err
	}
	s.publish(store)
	return store, nil
}

// Subscribe returns a channel that receives every snapshot this store persists.
// Slow receivers only see the latest snapshot. Call cancel to stop delivery;
// it closes the channel.
func (s *ListStore) Subscribe() (updates <-chan Store, cancel func()) {
	ch := make(chan Store, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	return ch, func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// mutate runs one read-modify-write cycle. fn receives a private copy it may modify.
func (s *ListStore) mutate(ctx context.Context, snap Store, op string, fn func(Store) (Store, error)) (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, readErr := s.read(ctx)
	if readErr != nil {
		// The persisted blob stays authoritative: apply to the caller's
		// snapshot for display but do not write.
		s.log.Error("Error reading lists before %s: %v", op, readErr)
		next, err := fn(snap.Clone())
		if err != nil {
			return snap, err
		}
		return next, readErr
	}

	next, err := fn(base)
	if err != nil {
		s.log.Debug("%s rejected: %v", op, err)
		return snap, err
	}

	if err := s.write(ctx, next); err != nil {
		s.log.Error("Error saving lists after %s: %v", op, err)
		return next, err
	}
	s.log.Debug("%s: persisted %d lists", op, len(next))
	s.publish(next)
	return next, nil
}

// read returns a private copy of the persisted store.
func (s *ListStore) read(ctx context.Context) (Store, error) {
	blob, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, &StorageError{Op: OpRead, Key: s.key, Err: err}
	}
	if !found {
		return Store{}, nil
	}
	store, err := Decode(blob)
	if err != nil {
		return nil, &StorageError{Op: OpRead, Key: s.key, Err: err}
	}
	return store, nil
}

func (s *ListStore) write(ctx context.Context, store Store) error {
	blob, err := Encode(store)
	if err != nil {
		return &StorageError{Op: OpWrite, Key: s.key, Err: err}
	}
	if err := s.kv.Set(ctx, s.key, blob); err != nil {
		return &StorageError{Op: OpWrite, Key: s.key, Err: err}
	}
	return nil
}

// publish hands snap to every subscriber without blocking, replacing any
// snapshot the subscriber has not consumed yet.
func (s *ListStore) publish(snap Store) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap.Clone():
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}
