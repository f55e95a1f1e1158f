// Package formatter renders console summaries of a harvest run.
package formatter

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// KeywordSummary is one keyword's outcome line in the run summary.
type KeywordSummary struct {
	Keyword    string
	Variant    string
	New        int
	StoreTotal int
	Status     string
}

var summaryHeader = []string{"Keyword", "Winning Variant", "New", "Total", "Status"}

// RenderSummary renders an aligned table of per-keyword outcomes. Cell
// widths are measured with runewidth so CJK keywords line up in terminals.
func RenderSummary(rows []KeywordSummary) string {
	table := [][]string{summaryHeader}

	for _, r := range rows {
		variant := r.Variant
		if variant == "" {
			variant = "-"
		}

		table = append(table, []string{
			r.Keyword,
			variant,
			strconv.Itoa(r.New),
			strconv.Itoa(r.StoreTotal),
			r.Status,
		})
	}

	widths := make([]int, len(summaryHeader))

	for _, row := range table {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder

	for rowIdx, row := range table {
		for i, cell := range row {
			b.WriteString("| ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			b.WriteString(" ")
		}

		b.WriteString("|\n")

		if rowIdx == 0 {
			for i := range summaryHeader {
				b.WriteString("|")
				b.WriteString(strings.Repeat("-", widths[i]+2))
			}

			b.WriteString("|\n")
		}
	}

	return b.String()
}
