// Package prompt handles interactive prompts with no-prompt mode support.
// It provides filtered selection of a list or item name and a name prompt
// used when a command is run without its name argument.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"listkeep/internal/utils"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoOptions          = errors.New("nothing to select")
	ErrNoMatches          = errors.New("nothing matches the filter")
)

// Selector picks one name from Options.
// Duplicate names are shown once; operations address lists and items by name.
type Selector struct {
	Options  []string
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the selection prompt.
// If NoPrompt is true, returns ErrNoPromptMode.
// If there is exactly one option, auto-selects it.
// Otherwise, prompts the user to filter and then pick by number.
func (s *Selector) Run() (string, error) {
	if s.NoPrompt {
		return "", ErrNoPromptMode
	}

	options := unique(s.Options)
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	if len(options) == 1 {
		return options[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}
	lines := utils.LineReader(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	filter, ok := utils.ReadLine(lines)
	if !ok {
		return "", ErrSelectionCancelled
	}
	filtered := Filter(options, filter)

	if len(filtered) == 0 {
		return "", ErrNoMatches
	}
	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", filtered[0])
		return filtered[0], nil
	}

	for i, name := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, name)
	}

	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	line, ok := utils.ReadLine(lines)
	if !ok {
		return "", ErrSelectionCancelled
	}

	input := strings.TrimSpace(line)
	num, err := strconv.Atoi(input)
	if err != nil {
		return "", fmt.Errorf("invalid selection: %s", input)
	}
	if num == 0 {
		return "", ErrSelectionCancelled
	}
	if num < 1 || num > len(filtered) {
		return "", fmt.Errorf("selection out of range: %d", num)
	}

	return filtered[num-1], nil
}

// Filter returns the names containing filter, case-insensitively.
// An empty filter returns a copy of names.
func Filter(names []string, filter string) []string {
	filter = strings.ToLower(strings.TrimSpace(filter))
	var out []string
	for _, name := range names {
		if filter == "" || strings.Contains(strings.ToLower(name), filter) {
			out = append(out, name)
		}
	}
	return out
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// NamePrompt asks for a list or item name until a valid one is entered.
type NamePrompt struct {
	Kind     string // "list" or "item"
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run prompts for the name and returns it trimmed.
func (p *NamePrompt) Run() (string, error) {
	if p.NoPrompt {
		return "", ErrNoPromptMode
	}

	writer := p.Writer
	if writer == nil {
		writer = io.Discard
	}
	lines := utils.LineReader(p.Reader)

	for {
		_, _ = fmt.Fprintf(writer, "%s name: ", strings.ToUpper(p.Kind[:1])+p.Kind[1:])
		line, ok := utils.ReadLine(lines)
		if !ok {
			return "", fmt.Errorf("no input for %s name", p.Kind)
		}
		name, err := utils.ValidateName(p.Kind, line)
		if err == nil {
			return name, nil
		}
		var ews *utils.ErrorWithSuggestion
		if errors.As(err, &ews) {
			err = ews.Err
		}
		_, _ = fmt.Fprintf(writer, "Invalid name: %v\n", err)
	}
}
