package util

import (
	"fmt"
	"io"
	"strings"
)

// Table renders rows in aligned columns. Cell values may contain ANSI color
// codes; widths are computed on the visible characters only.
type Table struct {
	headers []string
	rows    [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row. Missing cells render empty, extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if dw := displayWidth(row[i]); dw > widths[i] {
				widths[i] = dw
			}
		}
	}

	line := make([]string, len(t.headers))
	for i, h := range t.headers {
		line[i] = padToWidth(h, widths[i])
	}
	fmt.Fprintln(w, strings.Join(line, "  "))

	for i, width := range widths {
		line[i] = strings.Repeat("-", width)
	}
	fmt.Fprintln(w, strings.Join(line, "  "))

	for _, row := range t.rows {
		for i, width := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			line[i] = padToWidth(cell, width)
		}
		fmt.Fprintln(w, strings.Join(line, "  "))
	}
}

// stripANSI removes ANSI escape sequences for width calculation.
func stripANSI(s string) string {
	for {
		start := strings.Index(s, "\033[")
		if start == -1 {
			return s
		}
		end := strings.Index(s[start:], "m")
		if end == -1 {
			return s
		}
		s = s[:start] + s[start+end+1:]
	}
}

func displayWidth(s string) int {
	return len([]rune(stripANSI(s)))
}

func padToWidth(s string, width int) string {
	if dw := displayWidth(s); dw < width {
		return s + strings.Repeat(" ", width-dw)
	}
	return s
}
