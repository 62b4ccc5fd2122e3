// Package markdown formats lists as a markdown document and parses such
// documents back. Used by 'listkeep export --format markdown' and the
// matching import.
package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"listkeep/internal/liststore"
)

// Title is the heading written at the top of every exported document.
const Title = "# Lists"

var (
	listHeading = regexp.MustCompile(`^##\s+(.*)$`)
	itemLine    = regexp.MustCompile(`^[-*](?:\s+\[[ xX]\])?(?:\s+(.*))?$`)
)

// Format renders the store as one "## name" section per list with a
// "- item" line per item.
// Names that span lines cannot be represented and are rejected.
func Format(s liststore.Store) (string, error) {
	var sb strings.Builder
	sb.WriteString(Title)
	sb.WriteString("\n")

	for _, list := range s {
		if err := checkLine("list", list.Name); err != nil {
			return "", err
		}
		sb.WriteString("\n## ")
		sb.WriteString(list.Name)
		sb.WriteString("\n")
		if len(list.Items) > 0 {
			sb.WriteString("\n")
		}
		for _, it := range list.Items {
			if err := checkLine("item", it.ItemName); err != nil {
				return "", err
			}
			sb.WriteString("- ")
			sb.WriteString(it.ItemName)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func checkLine(kind, name string) error {
	if strings.ContainsAny(name, "\r\n") {
		return fmt.Errorf("%s name %q spans multiple lines", kind, name)
	}
	return nil
}

// Parse reads a document written by Format.
// Blank lines and the level-one title are ignored; checkboxes in front of
// items are dropped.
func Parse(text string) (liststore.Store, error) {
	store := liststore.Store{}

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" || line == Title || strings.HasPrefix(line, "# ") {
			continue
		}

		if m := listHeading.FindStringSubmatch(line); m != nil {
			store = append(store, liststore.List{Name: m[1], Items: []liststore.Item{}})
			continue
		}

		if m := itemLine.FindStringSubmatch(strings.TrimLeft(line, " \t")); m != nil {
			if len(store) == 0 {
				return nil, fmt.Errorf("line %d: item before the first list heading", i+1)
			}
			last := &store[len(store)-1]
			last.Items = append(last.Items, liststore.Item{ItemName: m[1]})
			continue
		}

		return nil, fmt.Errorf("line %d: expected a '## list' heading or a '- item' line, got %q", i+1, line)
	}

	return store, nil
}
