package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrListNotFound returns an error for when a list is not found.
func ErrListNotFound(listName string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("list not found: %s", listName),
		Suggestion: fmt.Sprintf("Create the list with 'listkeep list create %s'", listName),
	}
}

// ErrListExists returns an error for when a list name is already taken.
func ErrListExists(listName string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("list '%s' already exists", listName),
		Suggestion: "Choose a different name or set duplicate_lists: allow in your config file",
	}
}

// ErrEmptyName returns an error for a blank list or item name.
// kind is "list" or "item".
func ErrEmptyName(kind string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("%s name cannot be empty", kind),
		Suggestion: fmt.Sprintf("Provide a %s name with at least one visible character", kind),
	}
}

// ErrBackendNotConfigured returns an error when a backend is not configured.
func ErrBackendNotConfigured(name string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("backend not configured: %s", name),
		Suggestion: fmt.Sprintf("Add %s configuration to your config file or pick another with --backend", name),
	}
}

// ErrStorageUnavailable returns an error when the backing store could not be
// read or written, with a suggestion derived from the reason.
func ErrStorageUnavailable(op, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("could not %s lists: %s", op, reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "permission denied") || strings.Contains(lowerReason, "read-only") {
		return "Check that you can write to the data directory, or set a different path in your config file"
	}

	if strings.Contains(lowerReason, "no space") || strings.Contains(lowerReason, "disk full") {
		return "Free some disk space and try again"
	}

	if strings.Contains(lowerReason, "timeout") || strings.Contains(lowerReason, "locked") || strings.Contains(lowerReason, "busy") {
		return "Another listkeep process may hold the database. Close it and try again"
	}

	if strings.Contains(lowerReason, "keyring") || strings.Contains(lowerReason, "dbus") {
		return "The system keyring is unavailable. Use --backend sqlite or another backend"
	}

	if strings.Contains(lowerReason, "json") {
		return "The stored data is corrupt. Restore it with 'listkeep import <file>'"
	}

	return "Run with --verbose for details and check your backend configuration"
}

// ErrNoListsAvailable returns an error when no lists exist.
func ErrNoListsAvailable() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("no lists available"),
		Suggestion: "Create a list with 'listkeep list create <name>'",
	}
}
