package ui

import (
	"bytes"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "PRESET", "MIDDLEWARE", "DOCKER")
	table.AddRow("api", "logger, cors", "no")
	table.AddRow("full", "logger, rateLimit", "yes", "ignored")
	table.Render()

	want := "" +
		"PRESET  MIDDLEWARE         DOCKER\n" +
		"──────  ─────────────────  ──────\n" +
		"api     logger, cors       no\n" +
		"full    logger, rateLimit  yes\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTableAlignsMultibyteCells(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "TOOL", "STATUS")
	table.AddRow("✓ node", "v20.11.0")
	table.AddRow("✗ docker", "not found")
	table.Render()

	want := "" +
		"TOOL      STATUS\n" +
		"────────  ─────────\n" +
		"✓ node    v20.11.0\n" +
		"✗ docker  not found\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Project", "shop")
	kv.AddRow("Database", "postgres")
	kv.Render()

	want := "Project:  shop\nDatabase: postgres\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Toolchain", true)
	if buf.String() != "Toolchain\n─────────\n" {
		t.Errorf("unexpected header %q", buf.String())
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"a", 3, "a  "},
		{"abc", 2, "abc"},
		{"✓", 2, "✓ "},
	}
	for _, tt := range tests {
		if got := padRight(tt.in, tt.n); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q; want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
