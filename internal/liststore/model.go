package liststore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a leaf record holding a display name.
type Item struct {
	ItemName string `json:"itemName"`
}

// List is a named, ordered collection of items.
type List struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Store is a snapshot of every list, in creation order.
// Operations on ListStore never modify a Store they are given.
type Store []List

// Clone returns a deep copy of the snapshot.
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for i, l := range s {
		items := make([]Item, len(l.Items))
		copy(items, l.Items)
		out[i] = List{Name: l.Name, Items: items}
	}
	return out
}

// Names returns list names in store order.
func (s Store) Names() []string {
	names := make([]string, len(s))
	for i, l := range s {
		names[i] = l.Name
	}
	return names
}

// Find returns the first list named name.
func (s Store) Find(name string) (List, bool) {
	if i := s.index(name); i >= 0 {
		return s[i], true
	}
	return List{}, false
}

// ItemNames returns the item names of l in order.
func (l List) ItemNames() []string {
	names := make([]string, len(l.Items))
	for i, it := range l.Items {
		names[i] = it.ItemName
	}
	return names
}

func (s Store) index(name string) int {
	for i := range s {
		if s[i].Name == name {
			return i
		}
	}
	return -1
}

// Encode serializes the store as a compact JSON array:
//
//	[{"name":"groceries","items":[{"itemName":"milk"}]}]
//
// HTML characters are left unescaped and empty item sequences encode as [].
func Encode(s Store) (string, error) {
	normalized := s.Clone()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return "", fmt.Errorf("json marshal: %w", err)
	}
	return unescapeLineSeparators(strings.TrimSuffix(buf.String(), "\n")), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes encoding/json
// always emits back into raw characters, matching JSON.stringify output.
// Escaped backslashes are skipped as pairs so "\\u2028" stays literal text.
func unescapeLineSeparators(s string) string {
	if !strings.Contains(s, `\u202`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		switch seq := s[i:min(i+6, len(s))]; seq {
		case `\u2028`:
			sb.WriteRune('\u2028')
			i += 5
		case `\u2029`:
			sb.WriteRune('\u2029')
			i += 5
		default:
			sb.WriteString(s[i : i+2])
			i++
		}
	}
	return sb.String()
}

// Decode parses a blob produced by Encode. Blank input and JSON null decode
// as an empty store.
func Decode(blob string) (Store, error) {
	if strings.TrimSpace(blob) == "" {
		return Store{}, nil
	}
	var s Store
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if s == nil {
		return Store{}, nil
	}
	for i := range s {
		if s[i].Items == nil {
			s[i].Items = []Item{}
		}
	}
	return s, nil
}
