package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxNameLength bounds list and item names accepted from the UI and CLI.
const MaxNameLength = 256

// ValidateName checks a list or item name entered by the user and returns it
// trimmed of surrounding whitespace. kind is "list" or "item".
func ValidateName(kind, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrEmptyName(kind)
	}
	if len([]rune(trimmed)) > MaxNameLength {
		return "", WrapWithSuggestion(
			fmt.Errorf("%s name too long: %d characters", kind, len([]rune(trimmed))),
			fmt.Sprintf("Keep %s names under %d characters", kind, MaxNameLength),
		)
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", WrapWithSuggestion(
				fmt.Errorf("%s name contains control characters", kind),
				"Remove tabs, newlines and other non-printable characters",
			)
		}
	}
	return trimmed, nil
}

// ValidateOutputFormat checks an output format flag or config value.
func ValidateOutputFormat(format string) error {
	switch format {
	case "", "text", "json":
		return nil
	default:
		return WrapWithSuggestion(
			fmt.Errorf("invalid output format: %s", format),
			"Valid options: text, json",
		)
	}
}
