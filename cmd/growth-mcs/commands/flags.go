package commands

import (
	"fmt"

	"growth-mcs/internal/config"
	"growth-mcs/internal/simulation"
	"growth-mcs/internal/stats"

	"github.com/spf13/cobra"
)

// runFlags mirrors the configuration keys that can be overridden on the command line.
// Only flags set explicitly override the loaded configuration.
type runFlags struct {
	input       string
	output      string
	simulations int
	volatility  float64
	width       int
	height      int
	csv         bool
	csvDir      string
	threads     int
	seed        int64
	thresholds  []string
	charts      bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.input, "input", "i", config.DefaultInputFile, "input file with growth forecasts")
	fs.StringVarP(&f.output, "output", "o", config.DefaultOutputFile, "output file for the report")
	fs.IntVarP(&f.simulations, "simulations", "s", simulation.DefaultTrials, "number of simulations per entity")
	fs.Float64VarP(&f.volatility, "volatility", "f", simulation.DefaultVolatilityFactor, "volatility factor applied to the forecast dispersion")
	fs.IntVarP(&f.width, "width", "w", simulation.DefaultHistogramWidth, "histogram width")
	fs.IntVarP(&f.height, "height", "H", simulation.DefaultHistogramHeight, "histogram height")
	fs.BoolVarP(&f.csv, "csv", "c", false, "export the trial outcomes of every entity to CSV")
	fs.StringVar(&f.csvDir, "csv-dir", ".", "directory for CSV exports")
	fs.IntVarP(&f.threads, "threads", "t", 0, "number of worker goroutines (default: available cores)")
	fs.Int64Var(&f.seed, "seed", 0, "seed for a reproducible run")
	fs.StringArrayVar(&f.thresholds, "threshold", nil, `probability threshold such as ">25" or "<=-5" (repeatable, replaces the defaults)`)
	fs.BoolVar(&f.charts, "charts", false, "append Mermaid charts to the report")
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.AppConfig) error {
	fs := cmd.Flags()
	if fs.Changed("input") {
		cfg.InputFile = f.input
	}
	if fs.Changed("output") {
		cfg.OutputFile = f.output
	}
	if fs.Changed("simulations") {
		cfg.Simulation.Trials = f.simulations
	}
	if fs.Changed("volatility") {
		cfg.Simulation.VolatilityFactor = f.volatility
	}
	if fs.Changed("width") {
		cfg.Simulation.HistogramWidth = f.width
	}
	if fs.Changed("height") {
		cfg.Simulation.HistogramHeight = f.height
	}
	if fs.Changed("csv") {
		cfg.ExportCSV = f.csv
	}
	if fs.Changed("csv-dir") {
		cfg.CSVDir = f.csvDir
	}
	if fs.Changed("threads") {
		cfg.Simulation.Workers = f.threads
	}
	if fs.Changed("seed") {
		seed := f.seed
		cfg.Simulation.Seed = &seed
	}
	if fs.Changed("charts") {
		cfg.EnableMermaidCharts = f.charts
	}
	if fs.Changed("threshold") {
		thresholds := make([]stats.Threshold, 0, len(f.thresholds))
		for _, expr := range f.thresholds {
			t, err := stats.ParseThreshold(expr)
			if err != nil {
				return fmt.Errorf("invalid --threshold: %w", err)
			}
			thresholds = append(thresholds, t)
		}
		cfg.Simulation.Thresholds = thresholds
	}
	return nil
}
