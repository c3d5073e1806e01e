package util

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
)

// The two layouts follow foxglove-cli's tablewriter: a grid when the rows fit
// the terminal, and one block per record when they do not.

// HeaderColor is applied to table headers. It follows color.NoColor.
var HeaderColor = color.New(color.FgCyan, color.Bold) // nolint:gochecknoglobals

// Table is a set of rows under fixed headers.
type Table struct {
	headers []string
	rows    [][]string
	right   map[int]bool
}

// NewTable returns an empty table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: make(map[int]bool)}
}

// AlignRight right-aligns the given columns in the grid layout.
func (t *Table) AlignRight(columns ...int) *Table {
	for _, c := range columns {
		t.right[c] = true
	}
	return t
}

// Append adds a row. Missing cells are blank and extra cells are dropped.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}
	return widths
}

// Width returns the width of the grid layout.
func (t *Table) Width() int {
	width := 0
	for _, w := range t.columnWidths() {
		width += w + 3
	}
	return max(width-1, 0)
}

// Render writes the table as a grid, or as records if the grid is wider than
// termWidth. A termWidth of zero or less means unlimited.
func (t *Table) Render(w io.Writer, termWidth int) {
	if termWidth > 0 && t.Width() > termWidth {
		t.renderRecords(w, termWidth)
		return
	}
	t.renderGrid(w)
}

// Print renders the table sized to the terminal attached to stdout.
func (t *Table) Print(w io.Writer) {
	t.Render(w, TermWidth())
}

func pad(cell string, width int, right bool, paint func(a ...any) string) string {
	fill := strings.Repeat(" ", width-len(cell))
	if paint != nil {
		cell = paint(cell)
	}
	if right {
		return fill + cell
	}
	return cell + fill
}

/*
renderGrid writes rows like this:

	 Offset | Type
	--------+-------
	      2 | kill
	     13 | ticks
*/
func (t *Table) renderGrid(w io.Writer) {
	widths := t.columnWidths()
	line := func(cells []string, paint func(a ...any) string) {
		padded := make([]string, len(cells))
		for i, cell := range cells {
			padded[i] = pad(cell, widths[i], t.right[i], paint)
		}
		fmt.Fprintln(w, strings.TrimRight(" "+strings.Join(padded, " | "), " "))
	}
	line(t.headers, HeaderColor.Sprint)
	dashes := make([]string, len(widths))
	for i, width := range widths {
		dashes[i] = strings.Repeat("-", width+2)
	}
	fmt.Fprintln(w, strings.Join(dashes, "+"))
	for _, row := range t.rows {
		line(row, nil)
	}
}

/*
renderRecords writes rows like this:

	-[ RECORD 1 ]-+--------------
	File          | a.PRdemo
	Fingerprint   | 9c3e0a61...
*/
func (t *Table) renderRecords(w io.Writer, termWidth int) {
	label := 0
	for _, header := range t.headers {
		label = max(label, len(header))
	}
	label = max(label, len(fmt.Sprintf("-[ RECORD %d ]", len(t.rows)))-1)
	value := 0
	for _, row := range t.rows {
		for _, cell := range row {
			value = max(value, len(cell))
		}
	}
	right := max(min(value+1, termWidth-label-2), 1)
	for i, row := range t.rows {
		banner := fmt.Sprintf("-[ RECORD %d ]", i+1)
		fmt.Fprintf(w, "%s%s+%s\n", banner, strings.Repeat("-", label+1-len(banner)), strings.Repeat("-", right))
		for j, cell := range row {
			fmt.Fprintf(w, "%s | %s\n", pad(t.headers[j], label, false, HeaderColor.Sprint), cell)
		}
	}
}

// TermWidth returns the column count of the terminal, or zero when stdout is
// not a terminal.
func TermWidth() int {
	if StdoutRedirected() {
		return 0
	}
	cmd := exec.Command("stty", "size")
	cmd.Stdin = os.Stdin
	out, err := cmd.Output()
	if err != nil {
		return 80
	}
	var rows, cols int
	if _, err := fmt.Sscanf(string(out), "%d %d", &rows, &cols); err != nil {
		return 80
	}
	return cols
}
