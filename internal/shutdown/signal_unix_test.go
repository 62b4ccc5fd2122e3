//go:build unix

package shutdown_test

import (
	"os"
	"syscall"
	"testing"
	"time"

	"listkeep/internal/shutdown"
)

// TestNotifyOnSignal verifies a signal triggers shutdown.
func TestNotifyOnSignal(t *testing.T) {
	mgr := shutdown.NewManager()
	stop := mgr.NotifyOnSignal(syscall.SIGUSR1)
	defer stop()

	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("FindProcess error: %v", err)
	}
	if err := proc.Signal(syscall.SIGUSR1); err != nil {
		t.Fatalf("Signal error: %v", err)
	}

	select {
	case <-mgr.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected shutdown after signal")
	}
}
