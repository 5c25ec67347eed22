package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableRendersAlignedColumns(t *testing.T) {
	table := NewTable("NAME", "KIND")
	table.AddRow("obs-main", "obs")
	table.AddRow("mocap", "rokoko")

	var buf bytes.Buffer
	table.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "NAME      KIND") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "obs-main  obs") {
		t.Errorf("unexpected row: %q", lines[2])
	}
}

func TestTableIgnoresANSIInWidths(t *testing.T) {
	colored := "\033[32menabled\033[0m"
	table := NewTable("STATE")
	table.AddRow(colored)
	table.AddRow("disabled")

	var buf bytes.Buffer
	table.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// "disabled" (8 chars) sets the width; the colored cell must be padded
	// to 8 visible characters, not its raw byte length.
	if got := displayWidth(lines[1]); got != 8 {
		t.Errorf("separator width = %d, want 8", got)
	}
	if displayWidth(colored) != 7 {
		t.Errorf("displayWidth(colored) = %d, want 7", displayWidth(colored))
	}
}

func TestStripANSI(t *testing.T) {
	if got := stripANSI("\033[31mred\033[0m"); got != "red" {
		t.Errorf("stripANSI = %q, want %q", got, "red")
	}
	if got := stripANSI("plain"); got != "plain" {
		t.Errorf("stripANSI = %q, want %q", got, "plain")
	}
}
