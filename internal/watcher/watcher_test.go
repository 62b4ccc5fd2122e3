package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"listkeep/backend/file"
)

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func startWatcher(t *testing.T, cfg *Config) *Watcher {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(w.Stop)
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	return w
}

// TestWatcherDetectsWrite verifies a write to the watched file fires OnChange.
func TestWatcherDetectsWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "lists.db")
	if err := os.WriteFile(target, []byte("initial"), 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	var changes atomic.Int32
	startWatcher(t, &Config{
		Paths:            []string{target},
		DebounceDuration: 50 * time.Millisecond,
		OnChange:         func() { changes.Add(1) },
	})

	if err := os.WriteFile(target, []byte("modified"), 0600); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected watcher to detect file change")
	}
}

// TestWatcherDetectsCreate verifies a file created after Start is picked up.
func TestWatcherDetectsCreate(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "lists.json")

	var changes atomic.Int32
	startWatcher(t, &Config{
		Paths:            []string{target},
		DebounceDuration: 50 * time.Millisecond,
		OnChange:         func() { changes.Add(1) },
	})

	if err := os.WriteFile(target, []byte("[]"), 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Error("expected watcher to detect file creation")
	}
}

// TestWatcherIgnoresOtherFiles verifies unrelated files in the same directory are ignored.
func TestWatcherIgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "lists.db")

	var changes atomic.Int32
	startWatcher(t, &Config{
		Paths:            []string{target},
		DebounceDuration: 20 * time.Millisecond,
		OnChange:         func() { changes.Add(1) },
	})

	if err := os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	if changes.Load() != 0 {
		t.Errorf("expected no change notifications, got %d", changes.Load())
	}
}

// TestWatcherMatchesJournalFiles verifies SQLite sidecar files count as the database.
func TestWatcherMatchesJournalFiles(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "lists.db")
	w, err := New(&Config{Paths: []string{target}})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	tests := []struct {
		name string
		want bool
	}{
		{target, true},
		{target + "-wal", true},
		{target + "-journal", true},
		{filepath.Join(tmpDir, "lists.dbx"), false},
		{filepath.Join(tmpDir, "other.db"), false},
	}
	for _, tt := range tests {
		if got := w.matches(tt.name); got != tt.want {
			t.Errorf("matches(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestWatcherDebounce verifies a burst of writes produces a single notification.
func TestWatcherDebounce(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "lists.db")
	if err := os.WriteFile(target, []byte("0"), 0600); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	var changes atomic.Int32
	startWatcher(t, &Config{
		Paths:            []string{target},
		DebounceDuration: 200 * time.Millisecond,
		OnChange:         func() { changes.Add(1) },
	})

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte{byte('a' + i)}, 0600); err != nil {
			t.Fatalf("failed to write: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > 0 }) {
		t.Fatal("expected a notification")
	}
	time.Sleep(300 * time.Millisecond)
	if got := changes.Load(); got != 1 {
		t.Errorf("expected 1 notification for a burst, got %d", got)
	}
}

// TestWatcherSeesFileBackendReplace verifies atomic rename-into-place writes are detected.
func TestWatcherSeesFileBackendReplace(t *testing.T) {
	tmpDir := t.TempDir()
	be, err := file.New(file.Config{Dir: tmpDir})
	if err != nil {
		t.Fatalf("file.New() error = %v", err)
	}
	defer func() { _ = be.Close() }()

	ctx := context.Background()
	if err := be.Set(ctx, "lists", "[]"); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	var changes atomic.Int32
	startWatcher(t, DefaultConfig(func() { changes.Add(1) }, be.Location("lists")))

	for i := 0; i < 2; i++ {
		before := changes.Load()
		if err := be.Set(ctx, "lists", `[{"name":"groceries","items":[]}]`); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		if !waitFor(t, 2*time.Second, func() bool { return changes.Load() > before }) {
			t.Fatalf("write %d: expected watcher to notice replaced file", i)
		}
	}
}

// TestWatcherStopCleanly verifies Stop is idempotent and blocks restarts.
func TestWatcherStopCleanly(t *testing.T) {
	w, err := New(DefaultConfig(nil, filepath.Join(t.TempDir(), "lists.db")))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}

	w.Stop()
	w.Stop()

	if err := w.Start(); err == nil {
		t.Error("expected Start after Stop to fail")
	}
}

// TestWatcherMissingDirectory verifies a nonexistent parent directory is skipped.
func TestWatcherMissingDirectory(t *testing.T) {
	w, err := New(DefaultConfig(nil, filepath.Join(t.TempDir(), "missing", "lists.db")))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()
	if err := w.Start(); err != nil {
		t.Errorf("Start should skip missing directories, got %v", err)
	}
}

// TestWatcherConfigDefaults verifies the default debounce window.
func TestWatcherConfigDefaults(t *testing.T) {
	cfg := DefaultConfig(func() {}, "a", "b")
	if cfg.DebounceDuration != DefaultDebounceDuration {
		t.Errorf("expected %v, got %v", DefaultDebounceDuration, cfg.DebounceDuration)
	}
	if len(cfg.Paths) != 2 {
		t.Errorf("expected 2 paths, got %v", cfg.Paths)
	}

	zero := &Config{}
	w, err := New(zero)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()
	if zero.DebounceDuration != DefaultDebounceDuration {
		t.Errorf("New should fill in debounce, got %v", zero.DebounceDuration)
	}
}
