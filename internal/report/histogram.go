package report

import (
	"fmt"
	"strings"

	"growth-mcs/internal/stats"
)

// RenderHistogram draws h as a text chart of height rows. Each bar is scaled against the
// tallest bin; the y-axis shows the share of that bin and the x-axis the outcome range.
func RenderHistogram(h stats.Histogram, height int) string {
	if len(h.Counts) == 0 || height <= 0 {
		return ""
	}

	width := len(h.Counts)
	maxFreq := h.MaxCount()

	var sb strings.Builder
	sb.WriteString("\nDISTRIBUTION HISTOGRAM:\n")
	sb.WriteString("========================\n")

	for row := height - 1; row >= 0; row-- {
		fmt.Fprintf(&sb, "%3d%% |", row*100/height)
		for _, count := range h.Counts {
			bar := 0
			if maxFreq > 0 {
				bar = count * height / maxFreq
			}
			if bar > row {
				sb.WriteByte('*')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}

	sb.WriteString("     +")
	sb.WriteString(strings.Repeat("-", width))
	sb.WriteString("+\n")
	fmt.Fprintf(&sb, "    %.1f%%", h.Min)
	sb.WriteString(strings.Repeat(" ", max(width-10, 0)))
	fmt.Fprintf(&sb, "%.1f%%\n\n", h.Max)
	return sb.String()
}
