// Package table renders aligned text tables with lipgloss.
package table

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const minColumnWidth = 6

// TerminalWidth returns the width of stdout, or 0 when it is not a terminal.
func TerminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w
	}
	return 0
}

// Style defines the visual styling for tables
type Style struct {
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Separator string
}

// PlainStyle returns a plain table style with no colors
func PlainStyle() Style {
	return Style{
		Header:    lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingRight(1),
		Cell:      lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1),
		Separator: "|",
	}
}

// ColorStyle returns a table with a highlighted header row
func ColorStyle() Style {
	return Style{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1),
		Cell:      lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1),
		Separator: "|",
	}
}

// Table is a simple table renderer
type Table struct {
	// MaxWidth shrinks the widest columns to fit, 0 disables it.
	MaxWidth int

	headers []string
	rows    [][]string
	style   Style
	align   []lipgloss.Position
}

// New creates a plain table sized to the terminal
func New(headers ...string) *Table {
	align := make([]lipgloss.Position, len(headers))
	for i := range align {
		align[i] = lipgloss.Left
	}
	return &Table{
		MaxWidth: TerminalWidth(),
		headers:  headers,
		style:    PlainStyle(),
		align:    align,
	}
}

// SetStyle changes the table style
func (t *Table) SetStyle(style Style) {
	t.style = style
}

// AlignRight right aligns the given columns, handy for numbers.
func (t *Table) AlignRight(cols ...int) {
	for _, c := range cols {
		if c >= 0 && c < len(t.align) {
			t.align[c] = lipgloss.Right
		}
	}
}

// Append adds a row, extra cells are dropped and missing ones left blank.
func (t *Table) Append(row ...string) {
	r := make([]string, len(t.headers))
	copy(r, row)
	t.rows = append(t.rows, r)
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	// padding
	for i := range widths {
		widths[i] += 2
	}
	if t.MaxWidth <= 0 {
		return widths
	}

	total := len(t.style.Separator) * (len(widths) - 1)
	for _, w := range widths {
		total += w
	}
	for total > t.MaxWidth {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		cut := min(total-t.MaxWidth, widths[widest]-minColumnWidth)
		widths[widest] -= cut
		total -= cut
	}
	return widths
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)) > width-1 {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "…"
}

func (t *Table) renderRow(row []string, widths []int, style lipgloss.Style) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = style.Width(widths[i]).Align(t.align[i]).Render(truncate(cell, widths[i]-2))
	}
	return strings.Join(cells, t.style.Separator)
}

// Render generates the complete table as a string
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}
	widths := t.widths()

	var out strings.Builder
	out.WriteString(t.renderRow(t.headers, widths, t.style.Header))
	out.WriteString("\n")

	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	out.WriteString(strings.Join(seps, "+"))
	out.WriteString("\n")

	for _, row := range t.rows {
		out.WriteString(t.renderRow(row, widths, t.style.Cell))
		out.WriteString("\n")
	}
	return out.String()
}

func (t *Table) String() string { return t.Render() }
