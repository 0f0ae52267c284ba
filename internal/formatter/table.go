// Package formatter renders console reports with display-width awareness,
// so tables stay aligned when cells contain Japanese text.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"nhkeasy/pkg/utils"
)

const minColumnWidth = 3

// Table renders header and rows as an aligned markdown table. Rows shorter
// than the header are padded with empty cells; extra cells are dropped.
func Table(header []string, rows [][]string) string {
	if len(header) == 0 {
		return ""
	}

	colCount := len(header)
	colWidths := make([]int, colCount)

	measure := func(row []string) {
		for i := 0; i < len(row) && i < colCount; i++ {
			if w := runewidth.StringWidth(strings.TrimSpace(row[i])); w > colWidths[i] {
				colWidths[i] = w
			}
		}
	}

	measure(header)

	for _, row := range rows {
		measure(row)
	}

	for i := range colWidths {
		if colWidths[i] < minColumnWidth {
			colWidths[i] = minColumnWidth
		}
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, renderRow(header, colWidths), renderSeparator(colWidths))

	for _, row := range rows {
		lines = append(lines, renderRow(row, colWidths))
	}

	return strings.Join(lines, "\n")
}

// KeyValue renders pairs as a two-column table with the given header.
func KeyValue(keyHeader, valueHeader string, pairs [][2]string) string {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}

	return Table([]string{keyHeader, valueHeader}, rows)
}

// Preview cuts s to at most width display columns, marking a cut with "...".
func Preview(s string, width int) string {
	s = utils.NormalizeWhitespace(s)
	if width <= 0 {
		return ""
	}

	return runewidth.Truncate(s, width, "...")
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = strings.TrimSpace(row[j])
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		// Pad with spaces based on display width
		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}

func renderSeparator(colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for _, width := range colWidths {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", width))
		sb.WriteString(" |")
	}

	return sb.String()
}
