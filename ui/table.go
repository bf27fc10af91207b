package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"salesassist/api"
)

const (
	maxColumnWidth = 40
	minColumnWidth = 3
	columnGap      = "  "
)

// renderTable draws a table result as aligned text columns fitted to width.
func renderTable(result api.Result, width int) string {
	var b strings.Builder

	if result.TableName != "" {
		b.WriteString("Sample data from " + TitleStyle.Render(result.TableName) + "\n")
	}

	cells := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		cells[i] = make([]string, len(result.Columns))
		for j := range result.Columns {
			if j < len(row) {
				cells[i][j] = singleLine(api.CellText(row[j]))
			}
		}
	}

	widths := columnWidths(result.Columns, cells, width)

	headerStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var header []string
	for j, col := range result.Columns {
		header = append(header, headerStyle.Render(fitCell(col, widths[j])))
	}
	b.WriteString(strings.Join(header, columnGap) + "\n")

	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += len(columnGap) * (len(widths) - 1)
	}
	b.WriteString(BorderStyle.Render(strings.Repeat("─", total)) + "\n")

	for _, row := range cells {
		line := make([]string, len(row))
		for j, cell := range row {
			line[j] = fitCell(cell, widths[j])
		}
		b.WriteString(strings.Join(line, columnGap) + "\n")
	}

	b.WriteString(DimStyle.Render(rowCountLabel(result.RowCount)))
	return b.String()
}

func rowCountLabel(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}

// columnWidths sizes each column to its widest cell, then shrinks the widest
// columns until the table fits.
func columnWidths(columns []string, rows [][]string, width int) []int {
	widths := make([]int, len(columns))
	for j, col := range columns {
		widths[j] = runewidth.StringWidth(col)
	}
	for _, row := range rows {
		for j, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}
	for j := range widths {
		if widths[j] > maxColumnWidth {
			widths[j] = maxColumnWidth
		}
		if widths[j] < minColumnWidth {
			widths[j] = minColumnWidth
		}
	}

	if len(widths) == 0 {
		return widths
	}
	budget := width - len(columnGap)*(len(widths)-1)
	for sum(widths) > budget {
		widest := 0
		for j := range widths {
			if widths[j] > widths[widest] {
				widest = j
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func fitCell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
