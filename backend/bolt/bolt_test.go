package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"listkeep/backend"
	"listkeep/backend/backendtest"
)

func openTemp(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "listkeep.bolt"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBoltConformance(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.KeyValueStore {
		return openTemp(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listkeep.bolt")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.Set(ctx, "lists", `[{"name":"groceries","items":[]}]`); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, found, err := reopened.Get(ctx, "lists")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || value != `[{"name":"groceries","items":[]}]` {
		t.Fatalf("unexpected value: found=%v value=%q", found, value)
	}
}

func TestBoltRejectsEmptyKey(t *testing.T) {
	store := openTemp(t)
	if err := store.Set(context.Background(), "", "[]"); err == nil {
		t.Fatal("expected error for empty key")
	}
}
