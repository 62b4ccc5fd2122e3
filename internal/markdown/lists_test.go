package markdown

import (
	"reflect"
	"strings"
	"testing"

	"listkeep/internal/liststore"
)

func sampleStore() liststore.Store {
	return liststore.Store{
		{Name: "groceries", Items: []liststore.Item{{ItemName: "milk"}, {ItemName: "<b>bread</b>"}}},
		{Name: "chores", Items: []liststore.Item{}},
	}
}

func TestFormat(t *testing.T) {
	got, err := Format(sampleStore())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "# Lists\n\n## groceries\n\n- milk\n- <b>bread</b>\n\n## chores\n"
	if got != want {
		t.Errorf("Format() =\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatEmpty(t *testing.T) {
	got, err := Format(liststore.Store{})
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got != "# Lists\n" {
		t.Errorf("Format() = %q", got)
	}
}

func TestFormatRejectsMultilineNames(t *testing.T) {
	tests := []struct {
		name  string
		store liststore.Store
	}{
		{"list", liststore.Store{{Name: "a\nb", Items: []liststore.Item{}}}},
		{"item", liststore.Store{{Name: "a", Items: []liststore.Item{{ItemName: "x\r\ny"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(tt.store)
			if err == nil || !strings.Contains(err.Error(), "spans multiple lines") {
				t.Errorf("expected multi-line error, got %v", err)
			}
		})
	}
}

func TestParseFormatted(t *testing.T) {
	text, err := Format(sampleStore())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(got, sampleStore()) {
		t.Errorf("Parse() = %+v, want %+v", got, sampleStore())
	}
}

func TestParseHandwritten(t *testing.T) {
	text := "# Weekend\r\n" +
		"## groceries\r\n" +
		"* milk\r\n" +
		"  - [x] eggs\r\n" +
		"- [ ] bread   \r\n" +
		"\r\n" +
		"## chores\n" +
		"-\n"

	got, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := liststore.Store{
		{Name: "groceries", Items: []liststore.Item{{ItemName: "milk"}, {ItemName: "eggs"}, {ItemName: "bread"}}},
		{Name: "chores", Items: []liststore.Item{{ItemName: ""}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	got, err := Parse("")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Parse(\"\") = %#v, want empty non-nil store", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr string
	}{
		{"item before heading", "- milk\n", "line 1: item before the first list heading"},
		{"stray text", "## groceries\nmilk\n", "line 2: expected"},
		{"deeper heading", "### groceries\n", "line 1: expected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
