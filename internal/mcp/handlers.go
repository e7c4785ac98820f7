package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"growth-mcs/internal/forecast"
	"growth-mcs/internal/simulation"
	"growth-mcs/internal/stats"
	"growth-mcs/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

type RunSimulationInput struct {
	Forecasts        []forecast.Record `json:"forecasts,omitempty" jsonschema:"inline forecasts, one record per entity"`
	File             string            `json:"file,omitempty" jsonschema:"forecast file to read instead of inline forecasts"`
	Simulations      int               `json:"simulations,omitempty" jsonschema:"number of trials per entity, default 10000"`
	VolatilityFactor float64           `json:"volatility_factor,omitempty" jsonschema:"multiplier on the forecast dispersion, default 1.5"`
	Seed             *int64            `json:"seed,omitempty" jsonschema:"seed for a reproducible run"`
	Thresholds       []string          `json:"thresholds,omitempty" jsonschema:"probability thresholds in percent such as >25 or <=-5"`
	HistogramWidth   int               `json:"histogram_width,omitempty" jsonschema:"number of histogram bins, default 60"`
	IncludeCharts    bool              `json:"include_charts,omitempty" jsonschema:"append Mermaid charts for each entity"`
}

type ProbabilityRow struct {
	Label       string  `json:"label"`
	Expression  string  `json:"expression"`
	Count       int     `json:"count"`
	Probability float64 `json:"probability"`
}

type EntityReport struct {
	Ticker           string                  `json:"ticker"`
	FirstYear        int                     `json:"first_year"`
	LastYear         int                     `json:"last_year"`
	ForecastMean     float64                 `json:"forecast_mean"`
	NoiseStdDev      float64                 `json:"noise_std_dev"`
	VolatilityFactor float64                 `json:"volatility_factor"`
	Trials           int                     `json:"trials"`
	Summary          stats.Summary           `json:"summary"`
	Probabilities    []ProbabilityRow        `json:"probabilities"`
	Histogram        stats.Histogram         `json:"histogram"`
	Yearly           []simulation.YearResult `json:"yearly"`
	Charts           []string                `json:"charts,omitempty"`
	Warnings         []string                `json:"warnings,omitempty"`
}

type SkippedEntity struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

type RunSimulationOutput struct {
	RunID    string          `json:"run_id"`
	Entities []EntityReport  `json:"entities"`
	Skipped  []SkippedEntity `json:"skipped,omitempty"`
}

type ReadForecastsInput struct {
	File string `json:"file" jsonschema:"path of the forecast file"`
}

type ReadForecastsOutput struct {
	Records []forecast.Record `json:"records"`
}

func (s *Server) handleRunSimulation(ctx context.Context, _ *sdk.CallToolRequest, in RunSimulationInput) (*sdk.CallToolResult, RunSimulationOutput, error) {
	records, err := s.resolveRecords(in.Forecasts, in.File)
	if err != nil {
		return nil, RunSimulationOutput{}, err
	}

	cfg, err := s.toolConfig(in)
	if err != nil {
		return nil, RunSimulationOutput{}, err
	}

	var out RunSimulationOutput
	valid := make([]forecast.Record, 0, len(records))
	for _, rec := range records {
		// Empty horizons go to the engine so they are skipped the same way as in a file run.
		if err := rec.Validate(); err != nil && !errors.Is(err, forecast.ErrNoYears) {
			out.Skipped = append(out.Skipped, SkippedEntity{Ticker: rec.Ticker, Reason: err.Error()})
			continue
		}
		valid = append(valid, rec)
	}

	log.Info().
		Int("entities", len(valid)).
		Int("trials", cfg.Trials).
		Msg("run_simulation called")

	batch := simulation.NewEngine(cfg).RunBatch(ctx, valid)
	if batch.Err != nil {
		return nil, RunSimulationOutput{}, fmt.Errorf("simulation interrupted: %w", batch.Err)
	}

	out.RunID = batch.RunID
	out.Entities = make([]EntityReport, 0, len(batch.Results))
	for _, res := range batch.Results {
		out.Entities = append(out.Entities, newEntityReport(res, in.IncludeCharts))
	}
	for _, sk := range batch.Skipped {
		out.Skipped = append(out.Skipped, SkippedEntity{Ticker: sk.Ticker, Reason: sk.Reason})
	}
	return nil, out, nil
}

func (s *Server) handleReadForecasts(_ context.Context, _ *sdk.CallToolRequest, in ReadForecastsInput) (*sdk.CallToolResult, ReadForecastsOutput, error) {
	if in.File == "" {
		return nil, ReadForecastsOutput{}, fmt.Errorf("file is required")
	}
	records, err := forecast.ParseFile(s.resolvePath(in.File))
	if err != nil {
		return nil, ReadForecastsOutput{}, err
	}
	return nil, ReadForecastsOutput{Records: records}, nil
}

func (s *Server) resolveRecords(inline []forecast.Record, file string) ([]forecast.Record, error) {
	switch {
	case len(inline) > 0 && file != "":
		return nil, fmt.Errorf("provide either forecasts or file, not both")
	case len(inline) > 0:
		if len(inline) > forecast.MaxEntities {
			return nil, fmt.Errorf("%d forecasts exceeds the limit of %d entities", len(inline), forecast.MaxEntities)
		}
		return inline, nil
	case file != "":
		return forecast.ParseFile(s.resolvePath(file))
	}
	return nil, fmt.Errorf("either forecasts or file is required")
}

func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) || s.cfg == nil || s.cfg.DataPath == "" {
		return path
	}
	return filepath.Join(s.cfg.DataPath, path)
}

func (s *Server) toolConfig(in RunSimulationInput) (simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if s.cfg != nil {
		cfg = s.cfg.Simulation
	}

	if in.Simulations < 0 || in.Simulations > maxToolTrials {
		return cfg, fmt.Errorf("simulations must be between 1 and %d", maxToolTrials)
	}
	if in.Simulations > 0 {
		cfg.Trials = in.Simulations
	}
	if in.VolatilityFactor < 0 {
		return cfg, fmt.Errorf("volatility_factor must be positive")
	}
	if in.VolatilityFactor > 0 {
		cfg.VolatilityFactor = in.VolatilityFactor
	}
	if in.HistogramWidth < 0 {
		return cfg, fmt.Errorf("histogram_width must be positive")
	}
	if in.HistogramWidth > 0 {
		cfg.HistogramWidth = in.HistogramWidth
	}
	if in.Seed != nil {
		seed := *in.Seed
		cfg.Seed = &seed
	}
	if len(in.Thresholds) > 0 {
		cfg.Thresholds = make([]stats.Threshold, 0, len(in.Thresholds))
		for _, expr := range in.Thresholds {
			t, err := stats.ParseThreshold(expr)
			if err != nil {
				return cfg, err
			}
			cfg.Thresholds = append(cfg.Thresholds, t)
		}
	}
	return cfg, nil
}

func newEntityReport(res simulation.EntityResult, charts bool) EntityReport {
	rep := EntityReport{
		Ticker:           res.Ticker,
		ForecastMean:     res.ForecastMean,
		NoiseStdDev:      res.NoiseStdDev,
		VolatilityFactor: res.VolatilityFactor,
		Trials:           res.Trials,
		Summary:          res.Summary,
		Histogram:        res.Histogram,
		Yearly:           res.Yearly,
		Warnings:         res.Warnings,
	}
	if len(res.Years) > 0 {
		rep.FirstYear, rep.LastYear = res.Years[0], res.Years[len(res.Years)-1]
	}
	for _, p := range res.Probabilities {
		rep.Probabilities = append(rep.Probabilities, ProbabilityRow{
			Label:       p.Threshold.Label,
			Expression:  p.Threshold.Expr(),
			Count:       p.Count,
			Probability: p.Fraction,
		})
	}
	if charts {
		rep.Charts = []string{
			visuals.GenerateOutcomeChart(res.Ticker, res.Histogram),
			visuals.GenerateYearlyConeChart(res.Ticker, res.Yearly),
		}
	}
	return rep
}
