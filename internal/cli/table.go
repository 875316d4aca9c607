package cli

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ansiPattern matches SGR escape sequences, which take no screen columns.
var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

const gutter = "  "

// Table lays out palette rows in aligned columns. Cells may carry ANSI
// swatches, so widths are counted in screen columns.
type Table struct {
	cols []column
	rows [][]string
}

type column struct {
	title string
	limit int // wrap plain cells wider than this; 0 for no limit
}

// NewTable creates a table with one column per title.
func NewTable(titles []string) *Table {
	cols := make([]column, len(titles))
	for i, title := range titles {
		cols[i] = column{title: title}
	}
	return &Table{cols: cols}
}

// SetColumnMaxWidth wraps plain cells of column col at limit screen columns.
// Swatch cells are never wrapped.
func (t *Table) SetColumnMaxWidth(col, limit int) {
	if col >= 0 && col < len(t.cols) {
		t.cols[col].limit = limit
	}
}

// AddRow appends a row, padded or truncated to the column count.
func (t *Table) AddRow(cells []string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// split returns the display lines of a cell in column col.
func (t *Table) split(col int, cell string) []string {
	if limit := t.cols[col].limit; limit > 0 && !strings.Contains(cell, "\x1b[") {
		return wrapText(cell, limit)
	}
	return []string{cell}
}

// Render returns the header, a dashed rule and every row, one per line.
func (t *Table) Render() string {
	if len(t.cols) == 0 {
		return ""
	}

	widths := make([]int, len(t.cols))
	for i, c := range t.cols {
		widths[i] = displayWidth(c.title)
	}
	cells := make([][][]string, len(t.rows))
	for r, row := range t.rows {
		cells[r] = make([][]string, len(row))
		for i, cell := range row {
			cells[r][i] = t.split(i, cell)
			for _, l := range cells[r][i] {
				widths[i] = max(widths[i], displayWidth(l))
			}
		}
	}

	var b strings.Builder
	line := func(cell func(col int) string) {
		parts := make([]string, len(widths))
		for i, w := range widths {
			parts[i] = padRight(cell(i), w)
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, gutter), " "))
		b.WriteByte('\n')
	}

	line(func(i int) string { return t.cols[i].title })
	line(func(i int) string { return strings.Repeat("-", widths[i]) })
	for _, row := range cells {
		height := 1
		for _, c := range row {
			height = max(height, len(c))
		}
		for k := 0; k < height; k++ {
			line(func(i int) string {
				if k < len(row[i]) {
					return row[i][k]
				}
				return ""
			})
		}
	}
	return b.String()
}

// displayWidth is the number of screen columns s occupies.
func displayWidth(s string) int {
	return utf8.RuneCountInString(ansiPattern.ReplaceAllString(s, ""))
}

func padRight(s string, width int) string {
	if w := displayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// wrapText breaks text at spaces into lines of at most width runes. Words
// longer than width are split.
func wrapText(text string, width int) []string {
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return []string{text}
	}

	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		if len(cur) > 0 && len(cur)+1+len(w) > width {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	flush()
	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}
