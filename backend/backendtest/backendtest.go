// Package backendtest provides a conformance suite that every KeyValueStore
// implementation runs from its own tests.
package backendtest

import (
	"context"
	"strings"
	"testing"

	"listkeep/backend"
)

// OpenFunc returns a fresh, empty backend. Cleanup is the caller's job (t.Cleanup).
type OpenFunc func(t *testing.T) backend.KeyValueStore

// Run exercises the KeyValueStore contract against backends produced by open.
func Run(t *testing.T, open OpenFunc) {
	t.Helper()

	t.Run("get missing key reports not found", func(t *testing.T) {
		be := open(t)
		value, found, err := be.Get(context.Background(), "lists")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if found {
			t.Errorf("expected key to be absent, got value %q", value)
		}
	})

	t.Run("set then get returns value", func(t *testing.T) {
		be := open(t)
		ctx := context.Background()
		blob := `[{"name":"groceries","items":[{"itemName":"milk"}]}]`

		if err := be.Set(ctx, "lists", blob); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		value, found, err := be.Get(ctx, "lists")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if !found {
			t.Fatal("expected key to be found")
		}
		if value != blob {
			t.Errorf("expected %q, got %q", blob, value)
		}
	})

	t.Run("set replaces whole value", func(t *testing.T) {
		be := open(t)
		ctx := context.Background()

		long := `[{"name":"` + strings.Repeat("x", 512) + `","items":[]}]`
		if err := be.Set(ctx, "lists", long); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		if err := be.Set(ctx, "lists", "[]"); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		value, _, err := be.Get(ctx, "lists")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if value != "[]" {
			t.Errorf("expected value to be fully replaced, got %q", value)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		be := open(t)
		ctx := context.Background()

		if err := be.Set(ctx, "lists", "a"); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		if err := be.Set(ctx, "other", "b"); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		value, _, _ := be.Get(ctx, "lists")
		if value != "a" {
			t.Errorf("expected 'a' under lists, got %q", value)
		}
	})

	t.Run("unicode survives", func(t *testing.T) {
		be := open(t)
		ctx := context.Background()
		blob := `[{"name":"épicerie ✓","items":[{"itemName":"日本茶"}]}]`

		if err := be.Set(ctx, "lists", blob); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		value, _, err := be.Get(ctx, "lists")
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if value != blob {
			t.Errorf("expected %q, got %q", blob, value)
		}
	})

	t.Run("cancelled context is rejected", func(t *testing.T) {
		be := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := be.Set(ctx, "lists", "[]"); err == nil {
			t.Error("expected Set with cancelled context to fail")
		}
		if _, _, err := be.Get(ctx, "lists"); err == nil {
			t.Error("expected Get with cancelled context to fail")
		}
	})
}
