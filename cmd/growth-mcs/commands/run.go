package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"growth-mcs/internal/config"
	"growth-mcs/internal/forecast"
	"growth-mcs/internal/report"
	"growth-mcs/internal/simulation"

	"github.com/rs/zerolog/log"
)

const progressInterval = 500 * time.Millisecond

func runSimulation(ctx context.Context, out io.Writer, cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(out, "Monte Carlo Stock Metrics Simulation")
	fmt.Fprintln(out, "====================================")

	engine := simulation.NewEngine(cfg.Simulation)
	sim := engine.Config()

	log.Debug().
		Str("input", cfg.InputFile).
		Str("output", cfg.OutputFile).
		Int("simulations", sim.Trials).
		Float64("volatility", sim.VolatilityFactor).
		Int("width", sim.HistogramWidth).
		Int("height", sim.HistogramHeight).
		Bool("csv", cfg.ExportCSV).
		Int("threads", sim.Workers).
		Msg("Configuration")

	records, err := forecast.ParseFile(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("no valid stock data found in %s, make sure the file exists and contains properly formatted forecasts: %w", cfg.InputFile, err)
	}

	fmt.Fprintf(out, "Found %d stock(s) for analysis:\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(out, "- %s (%d years of forecasts)\n", rec.Ticker, len(rec.Points))
	}

	started := time.Now()
	var batch simulation.BatchResult
	if verbose {
		progress := &simulation.Progress{}
		engine.SetProgress(progress)
		done := make(chan struct{})
		go watchProgress(done, progress)
		batch = engine.RunBatch(ctx, records)
		close(done)
	} else {
		batch = engine.RunBatch(ctx, records)
	}

	header := report.Header{
		RunID:            batch.RunID,
		Generated:        started,
		InputFile:        cfg.InputFile,
		Trials:           sim.Trials,
		VolatilityFactor: sim.VolatilityFactor,
	}
	opts := report.Options{
		HistogramHeight: sim.HistogramHeight,
		MermaidCharts:   cfg.EnableMermaidCharts,
	}
	if err := report.WriteFile(cfg.OutputFile, header, batch, opts); err != nil {
		return err
	}

	if cfg.ExportCSV {
		exportTrials(out, cfg.CSVDir, batch.Results)
	}

	for _, sk := range batch.Skipped {
		fmt.Fprintf(out, "Skipped %s: %s\n", sk.Ticker, sk.Reason)
	}
	if batch.Err != nil {
		return fmt.Errorf("simulation interrupted, partial results written to %s: %w", cfg.OutputFile, batch.Err)
	}

	fmt.Fprintf(out, "\nAnalysis complete! Results written to %s\n", cfg.OutputFile)
	fmt.Fprintln(out, "Check the output file for detailed statistics, graphs, and risk metrics.")
	log.Info().
		Str("run_id", batch.RunID).
		Int("entities", len(batch.Results)).
		Dur("elapsed", time.Since(started)).
		Msg("Analysis complete")
	return nil
}

func exportTrials(out io.Writer, dir string, results []simulation.EntityResult) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("path", dir).Msg("Failed to create CSV directory")
		return
	}
	for _, res := range results {
		path, err := report.ExportTrialsFile(dir, res.Ticker, res.Outcomes)
		if err != nil {
			log.Error().Err(err).Str("ticker", res.Ticker).Msg("CSV export failed")
			continue
		}
		fmt.Fprintf(out, "Exported %s simulation results to %s\n", res.Ticker, path)
	}
}

// watchProgress logs each entity's completion percentage until done is closed.
func watchProgress(done <-chan struct{}, progress *simulation.Progress) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	var last []int
	for {
		select {
		case <-done:
			logProgress(progress, last)
			return
		case <-ticker.C:
			last = logProgress(progress, last)
		}
	}
}

// logProgress logs every entity whose percentage moved since last and returns the new
// percentages, indexed in start order.
func logProgress(progress *simulation.Progress, last []int) []int {
	for i, e := range progress.Entities() {
		pct := e.Percent()
		if i < len(last) {
			if last[i] == pct {
				continue
			}
			last[i] = pct
		} else {
			last = append(last, pct)
		}
		log.Info().
			Str("ticker", e.Ticker).
			Int("percent", pct).
			Int64("done", e.Done).
			Int64("trials", e.Total).
			Msg("Running simulations")
	}
	return last
}
