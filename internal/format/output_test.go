package format

import (
	"bytes"
	"strings"
	"testing"
)

type rows struct{}

func (rows) Table() ([]string, [][]string) {
	return []string{"ID", "Text"}, [][]string{{"1", "Buy milk"}, {"2", "Call mom"}}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]int{"n": 1}, "", false); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "{\"n\":1}\n" {
		t.Fatalf("unexpected json %q", got)
	}
	buf.Reset()
	if err := Write(&buf, map[string]int{"n": 1}, "json", true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"n\": 1\n") {
		t.Fatalf("expected indented json, got %q", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, rows{}, "table", false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Buy milk", "Call mom", "|"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
}

func TestWriteTable_Unsupported(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 42, "table", false); err == nil {
		t.Fatalf("expected error for non-tabular value")
	}
	if err := Write(&bytes.Buffer{}, 42, "edn", false); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
