package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"growth-mcs/internal/simulation"
	"growth-mcs/internal/visuals"
)

var banner = strings.Repeat("=", 84)

// Header describes the run at the top of a report.
type Header struct {
	RunID            string
	Generated        time.Time
	InputFile        string
	Trials           int
	VolatilityFactor float64
}

// Options controls optional report sections.
type Options struct {
	HistogramHeight int
	MermaidCharts   bool
}

// TextWriter renders simulation results as the human-readable analysis report.
// The first write error is kept and returned by every later call.
type TextWriter struct {
	w    io.Writer
	opts Options
	err  error
}

// NewTextWriter returns a TextWriter writing to w.
func NewTextWriter(w io.Writer, opts Options) *TextWriter {
	if opts.HistogramHeight <= 0 {
		opts.HistogramHeight = simulation.DefaultHistogramHeight
	}
	return &TextWriter{w: w, opts: opts}
}

func (t *TextWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

// WriteBatch writes the header, every entity block and the list of skipped entities.
func (t *TextWriter) WriteBatch(h Header, batch simulation.BatchResult) error {
	if h.RunID == "" {
		h.RunID = batch.RunID
	}
	t.WriteHeader(h)
	for _, res := range batch.Results {
		t.WriteEntity(res)
	}
	t.WriteSkipped(batch.Skipped)
	return t.err
}

// WriteFile writes the report of batch to path, replacing any existing file.
func WriteFile(path string, h Header, batch simulation.BatchResult, opts Options) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output file %s: %w", path, err)
	}

	if err := NewTextWriter(file, opts).WriteBatch(h, batch); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return file.Close()
}

// WriteHeader writes the report title block.
func (t *TextWriter) WriteHeader(h Header) error {
	t.printf("MONTE CARLO SIMULATION ANALYSIS REPORT\n")
	t.printf("Generated: %s\n", h.Generated.Format(time.ANSIC))
	if h.RunID != "" {
		t.printf("Run ID: %s\n", h.RunID)
	}
	t.printf("Input File: %s\n", h.InputFile)
	t.printf("Simulations per Stock: %d\n", h.Trials)
	t.printf("Volatility Factor: %.2f\n", h.VolatilityFactor)
	t.printf("\n")
	return t.err
}

// WriteEntity writes the full analysis block of one entity.
func (t *TextWriter) WriteEntity(res simulation.EntityResult) error {
	first, last := 0, 0
	if len(res.Years) > 0 {
		first, last = res.Years[0], res.Years[len(res.Years)-1]
	}

	t.printf("\n%s\n", banner)
	t.printf("MONTE CARLO SIMULATION RESULTS FOR %s\n", res.Ticker)
	t.printf("%s\n", banner)
	t.printf("Number of Simulations: %d\n", res.Trials)
	t.printf("Forecast Period: %d-%d (%d years)\n", first, last, len(res.Years))
	t.printf("Base Forecast Mean Growth: %.2f%%\n", res.ForecastMean)
	t.printf("Adjusted Standard Deviation: %.2f%%\n", res.NoiseStdDev)
	t.printf("Volatility Factor Applied: %.1fx\n\n", res.VolatilityFactor)

	s := res.Summary
	t.printf("SIMULATION SUMMARY STATISTICS:\n")
	t.printf("------------------------------\n")
	t.printf("Mean Cumulative Growth:     %8.2f%%\n", s.Mean)
	t.printf("Standard Deviation:         %8.2f%%\n", s.StdDev)
	t.printf("Minimum Growth:             %8.2f%%\n", s.Min)
	t.printf("Maximum Growth:             %8.2f%%\n", s.Max)

	t.printf("\nPERCENTILE ANALYSIS:\n")
	t.printf("--------------------\n")
	t.printf("5th Percentile (Worst 5%%):  %8.2f%%\n", s.P5)
	t.printf("25th Percentile:            %8.2f%%\n", s.P25)
	t.printf("50th Percentile (Median):   %8.2f%%\n", s.P50)
	t.printf("75th Percentile:            %8.2f%%\n", s.P75)
	t.printf("95th Percentile (Best 5%%):  %8.2f%%\n", s.P95)

	t.printf("\nRISK METRICS:\n")
	t.printf("-------------\n")
	t.printf("Value at Risk (95%% confidence): %8.2f%%\n", s.VaR95)
	t.printf("Value at Risk (99%% confidence): %8.2f%%\n", s.VaR99)

	t.printf("\nPROBABILITY ANALYSIS:\n")
	t.printf("---------------------\n")
	for _, p := range res.Probabilities {
		label := p.Threshold.Label
		if label == "" {
			label = p.Threshold.Expr() + "%"
		}
		t.printf("%-33s%6.2f%%\n", "Probability of "+label+":", p.Fraction*100)
	}

	t.printf("%s", RenderHistogram(res.Histogram, t.opts.HistogramHeight))

	t.printf("YEAR-BY-YEAR ANALYSIS:\n")
	t.printf("======================\n")
	for _, y := range res.Yearly {
		t.printf("Year %d (Forecast: %.2f%%):\n", y.Year, y.Forecast)
		t.printf("  Simulated Mean: %7.2f%% | Std Dev: %6.2f%%\n", y.Summary.Mean, y.Summary.StdDev)
		t.printf("  Range: %7.2f%% to %7.2f%% | Median: %7.2f%%\n", y.Summary.Min, y.Summary.Max, y.Summary.P50)
	}

	for _, w := range res.Warnings {
		t.printf("WARNING: %s\n", w)
	}

	if t.opts.MermaidCharts {
		t.printf("\nCHARTS:\n")
		t.printf("%s\n\n", visuals.GenerateOutcomeChart(res.Ticker, res.Histogram))
		t.printf("%s\n", visuals.GenerateYearlyConeChart(res.Ticker, res.Yearly))
	}

	t.printf("\n%s\n", banner)
	t.printf("END OF ANALYSIS FOR %s\n", res.Ticker)
	t.printf("%s\n\n\n", banner)
	return t.err
}

// WriteSkipped lists entities that were not simulated.
func (t *TextWriter) WriteSkipped(skipped []simulation.Skipped) error {
	if len(skipped) == 0 {
		return t.err
	}
	t.printf("SKIPPED ENTITIES:\n")
	t.printf("-----------------\n")
	for _, s := range skipped {
		t.printf("- %s: %s\n", s.Ticker, s.Reason)
	}
	t.printf("\n")
	return t.err
}
