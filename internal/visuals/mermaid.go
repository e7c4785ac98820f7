package visuals

import (
	"fmt"
	"math"
	"strings"

	"growth-mcs/internal/simulation"
	"growth-mcs/internal/stats"
)

// maxChartBars keeps xychart-beta readable; wider histograms are merged into coarser bars.
const maxChartBars = 30

// GenerateOutcomeChart creates a Mermaid bar chart of the cumulative outcome histogram.
func GenerateOutcomeChart(ticker string, h stats.Histogram) string {
	if len(h.Counts) == 0 {
		return ""
	}

	group := 1
	if len(h.Counts) > maxChartBars {
		group = int(math.Ceil(float64(len(h.Counts)) / maxChartBars))
	}

	var labels []string
	var values []string
	maxVal := 0
	for i := 0; i < len(h.Counts); i += group {
		sum := 0
		for j := i; j < i+group && j < len(h.Counts); j++ {
			sum += h.Counts[j]
		}
		labels = append(labels, fmt.Sprintf("\"%.1f%%\"", h.BinStart(i)))
		values = append(values, fmt.Sprintf("%d", sum))
		if sum > maxVal {
			maxVal = sum
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s Cumulative Growth Distribution\"\n", ticker))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Trials\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateYearlyConeChart creates a Mermaid line chart of the forecast against the simulated
// P5 / P50 / P95 of each year.
func GenerateYearlyConeChart(ticker string, years []simulation.YearResult) string {
	if len(years) == 0 {
		return ""
	}

	var labels, forecasts, p5s, p50s, p95s []string
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, y := range years {
		labels = append(labels, fmt.Sprintf("\"%d\"", y.Year))
		forecasts = append(forecasts, fmt.Sprintf("%.1f", y.Forecast))
		p5s = append(p5s, fmt.Sprintf("%.1f", y.Summary.P5))
		p50s = append(p50s, fmt.Sprintf("%.1f", y.Summary.P50))
		p95s = append(p95s, fmt.Sprintf("%.1f", y.Summary.P95))

		minY = math.Min(minY, math.Min(y.Summary.P5, y.Forecast))
		maxY = math.Max(maxY, math.Max(y.Summary.P95, y.Forecast))
	}

	// Leave some headroom on both sides of the cone.
	pad := math.Max(1, (maxY-minY)*0.1)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s Yearly Growth Cone (P5 / P50 / P95)\"\n", ticker))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Growth (%%)\" %d --> %d\n", int(math.Floor(minY-pad)), int(math.Ceil(maxY+pad))))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(forecasts, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p5s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p50s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p95s, ", ")))
	sb.WriteString("```")
	return sb.String()
}
