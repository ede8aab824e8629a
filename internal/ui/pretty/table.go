package pretty

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const tablePadding = 2

// Table renders rows under a header with columns padded to the widest cell.
type Table struct {
	styles *Styles
	header []string
	rows   [][]string
}

// NewTable creates a table with the given column headers.
func NewTable(styles *Styles, header ...string) *Table {
	return &Table{styles: styles, header: header}
}

// AddRow appends a row; missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render returns the table, header first, one line per row.
func (t *Table) Render() string {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	b.WriteString(t.line(t.header, widths, t.styles.TableHeader))
	b.WriteByte('\n')

	total := 0
	for _, w := range widths {
		total += w + tablePadding
	}
	b.WriteString(t.styles.TableBorder.Render(strings.Repeat("-", max(total-tablePadding, 0))))
	b.WriteByte('\n')

	for _, row := range t.rows {
		b.WriteString(t.line(row, widths, lipgloss.NewStyle()))
		b.WriteByte('\n')
	}
	return b.String()
}

func (t *Table) line(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := w - lipgloss.Width(cell)
		if i < len(widths)-1 {
			pad += tablePadding
		} else {
			pad = 0
		}
		parts[i] = style.Render(cell) + strings.Repeat(" ", pad)
	}
	return strings.Join(parts, "")
}
