package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is a bordered table with an optional title and header row
type Table struct {
	title      string
	headers    []string
	rows       []tableRow
	widths     []int
	hideHeader bool
	minWidth   int
}

type tableRow struct {
	cells  []string
	active bool
}

// NewTable creates a table with the given column headers
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	return &Table{headers: headers, widths: widths}
}

// SetTitle sets a title spanning every column
func (t *Table) SetTitle(title string) {
	t.title = title
}

// HideHeader hides the column header row
func (t *Table) HideHeader() {
	t.hideHeader = true
}

// SetMinWidth sets a minimum width for the table content
func (t *Table) SetMinWidth(width int) {
	t.minWidth = width
}

// AddRow adds a row; missing cells are left empty and extra cells dropped
func (t *Table) AddRow(cells ...string) {
	t.addRow(cells, false)
}

// AddActiveRow adds a highlighted row, used for the version in use
func (t *Table) AddActiveRow(cells ...string) {
	t.addRow(cells, true)
}

func (t *Table) addRow(cells []string, active bool) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i >= len(cells) {
			break
		}
		row[i] = cells[i]
		// lipgloss.Width ignores ANSI codes
		if w := lipgloss.Width(cells[i]); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, tableRow{cells: row, active: active})
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.rows)
}

// Render returns the table as a string
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}
	initStyles()

	widths := append([]int(nil), t.widths...)
	total := 0
	for _, w := range widths {
		total += w + 2
	}
	if t.minWidth > 0 && total < t.minWidth {
		widths[len(widths)-1] += t.minWidth - total
		total = t.minWidth
	}

	var lines []string
	rule := func(width int) string { return StyleMuted.Render(strings.Repeat("─", width)) }

	if t.title != "" {
		title := lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Width(total).
			Align(lipgloss.Center)
		lines = append(lines, title.Render(t.title), rule(total))
	}

	if !t.hideHeader {
		var header, sep strings.Builder
		for i, h := range t.headers {
			header.WriteString(StyleTableHeader.Width(widths[i] + 2).Render(h))
			sep.WriteString(rule(widths[i] + 2))
		}
		lines = append(lines, header.String(), sep.String())
	}

	for _, row := range t.rows {
		var line strings.Builder
		for i, cell := range row.cells {
			style := StyleTableCell.Width(widths[i] + 2)
			if row.active {
				style = style.Foreground(colorSuccess)
			}
			line.WriteString(style.Render(cell))
		}
		lines = append(lines, line.String())
	}

	return StyleTableBorder.Render(strings.Join(lines, "\n"))
}
