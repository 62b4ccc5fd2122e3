package backend_test

import (
	"context"
	"strings"
	"testing"

	"listkeep/backend"
)

type stubStore struct{ opts backend.Options }

func (s *stubStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (s *stubStore) Set(context.Context, string, string) error         { return nil }
func (s *stubStore) Close() error                                      { return nil }

func TestRegistry(t *testing.T) {
	backend.Register("Stub", func(opts backend.Options) (backend.KeyValueStore, error) {
		return &stubStore{opts: opts}, nil
	})

	t.Run("names are case-insensitive", func(t *testing.T) {
		if !backend.IsRegistered("stub") || !backend.IsRegistered("STUB") {
			t.Fatal("expected stub to be registered regardless of case")
		}
	})

	t.Run("open passes options", func(t *testing.T) {
		be, err := backend.Open("stub", backend.Options{FileDir: "/tmp/x"})
		if err != nil {
			t.Fatalf("Open error: %v", err)
		}
		if be.(*stubStore).opts.FileDir != "/tmp/x" {
			t.Errorf("options not passed through: %+v", be.(*stubStore).opts)
		}
	})

	t.Run("unknown backend lists available ones", func(t *testing.T) {
		_, err := backend.Open("nope", backend.Options{})
		if err == nil {
			t.Fatal("expected error for unknown backend")
		}
		if !strings.Contains(err.Error(), "stub") {
			t.Errorf("expected error to list available backends, got %v", err)
		}
	})
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"lists", false},
		{"my-lists_2", false},
		{"", true},
		{"   ", true},
		{"a/b", true},
		{`a\b`, true},
		{"..", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := backend.ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}
