package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateNameValid(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"groceries", "groceries"},
		{"  chores  ", "chores"},
		{"épicerie ✓", "épicerie ✓"},
		{"a b", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateName("list", tt.in)
			if err != nil {
				t.Fatalf("ValidateName(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ValidateName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateNameInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"control", "milk\x00"},
		{"newline", "milk\neggs"},
		{"too long", strings.Repeat("x", MaxNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateName("item", tt.in)
			if err == nil {
				t.Fatalf("ValidateName(%q) should fail", tt.in)
			}
			var ews *ErrorWithSuggestion
			if !errors.As(err, &ews) {
				t.Errorf("expected *ErrorWithSuggestion, got %T", err)
			}
		})
	}
}

func TestValidateNameEmptyMessage(t *testing.T) {
	_, err := ValidateName("item", " ")
	if err == nil || !strings.Contains(err.Error(), "item name cannot be empty") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{"", "text", "json"} {
		if err := ValidateOutputFormat(f); err != nil {
			t.Errorf("ValidateOutputFormat(%q) error = %v", f, err)
		}
	}
	if err := ValidateOutputFormat("xml"); err == nil {
		t.Error("ValidateOutputFormat(xml) should fail")
	}
}
