package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes "[LEVEL] message" lines. Debug lines appear only in verbose mode.
type Logger struct {
	verbose bool
	out     io.Writer // nil means os.Stderr at write time
	mu      sync.RWMutex
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{}
	})
	return loggerInstance
}

// SetVerboseMode toggles Debug output on the process-wide logger.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// SetOutput redirects log lines to w. Passing nil restores stderr.
// The TUI uses this to keep log lines off the terminal while it owns the screen.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

func (l *Logger) writer() io.Writer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.out == nil {
		return os.Stderr
	}
	return l.out
}

// formatMessage leaves msgOrFormat untouched when there are no args, so a
// literal "%" in a plain message survives.
func formatMessage(msgOrFormat string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msgOrFormat, args...)
	}
	return msgOrFormat
}

// Debug is a no-op unless verbose mode is on. Lines carry a wall-clock prefix.
func (l *Logger) Debug(msgOrFormat string, args ...interface{}) {
	if !l.IsVerbose() {
		return
	}
	fmt.Fprintf(l.writer(), "%s [DEBUG] %s\n", time.Now().Format("15:04:05"), formatMessage(msgOrFormat, args...))
}

func (l *Logger) Info(msgOrFormat string, args ...interface{}) {
	fmt.Fprintf(l.writer(), "[INFO] %s\n", formatMessage(msgOrFormat, args...))
}

func (l *Logger) Warn(msgOrFormat string, args ...interface{}) {
	fmt.Fprintf(l.writer(), "[WARN] %s\n", formatMessage(msgOrFormat, args...))
}

func (l *Logger) Error(msgOrFormat string, args ...interface{}) {
	fmt.Fprintf(l.writer(), "[ERROR] %s\n", formatMessage(msgOrFormat, args...))
}

// Package-level shorthands for the process-wide logger.

func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

func Warnf(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

func Errorf(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

// BackgroundLogger is an io.Writer appending timestamped lines to a log file.
// The TUI points the Logger at one so log output stays off the alternate screen.
type BackgroundLogger struct {
	mu   sync.Mutex
	file *os.File // nil when disabled, failed to open, or closed
	out  *log.Logger
	path string
}

// NewBackgroundLoggerWithEnabled opens listkeep-<pid>.log in the temp dir.
// A disabled logger accepts writes and drops them.
func NewBackgroundLoggerWithEnabled(enabled bool) (*BackgroundLogger, error) {
	if !enabled {
		return &BackgroundLogger{out: log.New(io.Discard, "", 0)}, nil
	}
	return NewBackgroundLoggerWithPath(filepath.Join(os.TempDir(), fmt.Sprintf("listkeep-%d.log", os.Getpid())))
}

// NewBackgroundLoggerWithPath appends to path. If the file cannot be opened the
// returned logger discards everything, so callers may keep using it after the error.
func NewBackgroundLoggerWithPath(path string) (*BackgroundLogger, error) {
	bl := &BackgroundLogger{path: path, out: log.New(io.Discard, "", 0)}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return bl, fmt.Errorf("open background log: %w", err)
	}
	bl.file = f
	bl.out = log.New(f, "", log.LstdFlags)
	return bl, nil
}

func (bl *BackgroundLogger) Write(p []byte) (int, error) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.out.Print(string(p))
	return len(p), nil
}

// Close closes the file; later writes are dropped. Closing twice is a no-op.
func (bl *BackgroundLogger) Close() error {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	bl.out = log.New(io.Discard, "", 0)
	if bl.file == nil {
		return nil
	}
	err := bl.file.Close()
	bl.file = nil
	return err
}

// GetLogPath returns the log file path, empty when disabled.
func (bl *BackgroundLogger) GetLogPath() string {
	return bl.path
}

// IsEnabled reports whether writes currently reach a file.
func (bl *BackgroundLogger) IsEnabled() bool {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return bl.file != nil
}
