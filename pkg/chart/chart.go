// Package chart renders ranked word counts as a horizontal text bar chart.
package chart

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dtnitsch/wordfreq/pkg/mapreduce"
)

const (
	DefaultWidth = 50
	barRune      = "█"
)

// RenderBars writes entries as bars, largest first, the longest bar being
// width cells wide. Every non-zero count gets at least one cell.
func RenderBars(w io.Writer, title string, entries []mapreduce.Entry, width int) error {
	if width < 1 {
		width = DefaultWidth
	}

	if title != "" {
		if _, err := fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("=", utf8.RuneCountInString(title))); err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "(no words)")
		return err
	}

	labelWidth, maxCount := 0, 0
	for _, e := range entries {
		labelWidth = max(labelWidth, utf8.RuneCountInString(e.Word))
		maxCount = max(maxCount, e.Count)
	}

	for _, e := range entries {
		cells := 0
		if maxCount > 0 {
			cells = e.Count * width / maxCount
			if cells == 0 && e.Count > 0 {
				cells = 1
			}
		}
		pad := strings.Repeat(" ", labelWidth-utf8.RuneCountInString(e.Word))
		if _, err := fmt.Fprintf(w, "%s%s | %s %d\n", pad, e.Word, strings.Repeat(barRune, cells), e.Count); err != nil {
			return err
		}
	}
	return nil
}

// Title returns the chart heading for a top-n ranking.
func Title(n int) string {
	return fmt.Sprintf("Top %d Most Frequent Words", n)
}
