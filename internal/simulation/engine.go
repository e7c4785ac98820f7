package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"growth-mcs/internal/forecast"
	"growth-mcs/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// entitySeedStride separates the seeds of entities in a batch so their worker seeds
// (base+worker) never overlap.
const entitySeedStride = 1_000_003

// ErrNoForecastYears is returned for an entity whose forecast horizon is empty.
var ErrNoForecastYears = errors.New("entity has no forecast years")

// Engine performs the Monte-Carlo growth simulation.
type Engine struct {
	cfg      Config
	progress *Progress
}

// YearResult summarises the simulated growth of a single forecast year across all trials.
type YearResult struct {
	Year     int           `json:"year"`
	Forecast float64       `json:"forecast"`
	Summary  stats.Summary `json:"summary"`
}

// EntityResult bundles everything derived from one entity's simulation.
type EntityResult struct {
	Ticker           string              `json:"ticker"`
	Years            []int               `json:"years"`
	Forecast         []float64           `json:"forecast"`
	ForecastMean     float64             `json:"forecast_mean"`
	ForecastStdDev   float64             `json:"forecast_std_dev"`
	NoiseStdDev      float64             `json:"noise_std_dev"`
	VolatilityFactor float64             `json:"volatility_factor"`
	Trials           int                 `json:"trials"`
	Summary          stats.Summary       `json:"summary"`
	Histogram        stats.Histogram     `json:"histogram"`
	Probabilities    []stats.Probability `json:"probabilities"`
	Yearly           []YearResult        `json:"yearly"`
	// Outcomes holds the final cumulative growth of each trial in trial order.
	Outcomes []float64     `json:"-"`
	Elapsed  time.Duration `json:"elapsed"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Skipped records an entity that produced no result.
type Skipped struct {
	Ticker string `json:"ticker"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of RunBatch. Results keep the input order.
type BatchResult struct {
	RunID   string         `json:"run_id"`
	Results []EntityResult `json:"results"`
	Skipped []Skipped      `json:"skipped,omitempty"`
	// Err is set when the batch was interrupted by its context.
	Err error `json:"-"`
}

// NewEngine returns an engine running on a sanitized copy of cfg. Every correction is
// logged as a warning.
func NewEngine(cfg Config) *Engine {
	clean, warnings := cfg.Sanitize()
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
	return &Engine{cfg: clean}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetSeed makes subsequent runs deterministic.
func (e *Engine) SetSeed(seed int64) {
	e.cfg.Seed = &seed
}

// SetProgress attaches a counter advanced once per completed trial.
func (e *Engine) SetProgress(p *Progress) {
	e.progress = p
}

func (e *Engine) baseSeed() int64 {
	if e.cfg.Seed != nil {
		return *e.cfg.Seed
	}
	return time.Now().UnixNano()
}

// Run simulates a single entity using the full worker pool.
func (e *Engine) Run(ctx context.Context, rec forecast.Record) (EntityResult, error) {
	return e.run(ctx, rec, e.cfg.Workers, e.cfg.MaxCells, e.baseSeed())
}

// RunBatch simulates every record. Entities that fail are reported in Skipped and do not
// stop the batch; cancellation stops it and keeps the entities already finished.
//
// At most Workers goroutines run trials at any time: with at least Workers entities each
// entity gets one trial worker and entities run in parallel, otherwise entities run one
// after the other with the whole pool. Entities running in parallel share the MaxCells cap.
func (e *Engine) RunBatch(ctx context.Context, records []forecast.Record) BatchResult {
	batch := BatchResult{RunID: uuid.NewString()}
	base := e.baseSeed()

	results := make([]EntityResult, len(records))
	errs := make([]error, len(records))

	if e.cfg.Workers > 1 && len(records) >= e.cfg.Workers {
		cells := e.cfg.MaxCells / e.cfg.Workers
		var g errgroup.Group
		g.SetLimit(e.cfg.Workers)
		for i, rec := range records {
			g.Go(func() error {
				results[i], errs[i] = e.run(ctx, rec, 1, cells, base+int64(i)*entitySeedStride)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, rec := range records {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			results[i], errs[i] = e.run(ctx, rec, e.cfg.Workers, e.cfg.MaxCells, base+int64(i)*entitySeedStride)
		}
	}

	for i, rec := range records {
		if errs[i] == nil {
			batch.Results = append(batch.Results, results[i])
			continue
		}
		batch.Skipped = append(batch.Skipped, Skipped{Ticker: rec.Ticker, Err: errs[i], Reason: errs[i].Error()})
		if errors.Is(errs[i], context.Canceled) || errors.Is(errs[i], context.DeadlineExceeded) {
			continue
		}
		log.Warn().Err(errs[i]).Str("ticker", rec.Ticker).Msg("Skipping entity")
	}
	batch.Err = ctx.Err()

	log.Info().
		Str("run_id", batch.RunID).
		Int("simulated", len(batch.Results)).
		Int("skipped", len(batch.Skipped)).
		Msg("Batch complete")
	return batch
}

func (e *Engine) run(ctx context.Context, rec forecast.Record, workers, maxCells int, seed int64) (EntityResult, error) {
	if len(rec.Points) == 0 {
		return EntityResult{}, fmt.Errorf("%s: %w", rec.Ticker, ErrNoForecastYears)
	}
	growth := rec.Growth()
	for _, g := range growth {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return EntityResult{}, fmt.Errorf("%s: non-finite forecast growth", rec.Ticker)
		}
	}

	started := time.Now()
	res := EntityResult{
		Ticker:           rec.Ticker,
		Years:            rec.Years(),
		Forecast:         growth,
		ForecastMean:     stats.Mean(growth),
		ForecastStdDev:   stats.PopulationStdDev(growth),
		VolatilityFactor: e.cfg.VolatilityFactor,
		Trials:           e.cfg.Trials,
	}
	// A single-year horizon has no dispersion, so its trials are deterministic.
	res.NoiseStdDev = res.ForecastStdDev * e.cfg.VolatilityFactor

	log.Debug().
		Str("ticker", rec.Ticker).
		Int("years", len(growth)).
		Int("trials", e.cfg.Trials).
		Int("workers", workers).
		Float64("sigma", res.NoiseStdDev).
		Msg("Running Monte Carlo simulation")

	paths, err := e.simulatePaths(ctx, rec.Ticker, growth, res.NoiseStdDev, workers, maxCells, seed)
	if err != nil {
		return EntityResult{}, fmt.Errorf("%s: %w", rec.Ticker, err)
	}

	warn := func(what string, err error) {
		msg := fmt.Sprintf("%s: %v", what, err)
		res.Warnings = append(res.Warnings, msg)
		log.Warn().Err(err).Str("ticker", rec.Ticker).Msg(what)
	}

	if res.Summary, err = stats.Summarize(paths.Final); err != nil {
		warn("summary statistics unavailable", err)
	}
	if res.Histogram, err = stats.Bin(paths.Final, e.cfg.HistogramWidth); err != nil {
		warn("histogram unavailable", err)
	}
	res.Probabilities = stats.Fractions(paths.Final, e.cfg.Thresholds)

	res.Yearly = make([]YearResult, len(rec.Points))
	for y, p := range rec.Points {
		res.Yearly[y] = YearResult{Year: p.Year, Forecast: p.Growth}
		if res.Yearly[y].Summary, err = stats.Summarize(paths.Yearly[y]); err != nil {
			warn(fmt.Sprintf("year %d statistics unavailable", p.Year), err)
		}
	}

	res.Outcomes = paths.Final
	res.Elapsed = time.Since(started)

	log.Info().
		Str("ticker", rec.Ticker).
		Int("trials", res.Trials).
		Float64("mean", res.Summary.Mean).
		Float64("p50", res.Summary.P50).
		Dur("elapsed", res.Elapsed).
		Msg("Simulation finished")
	return res, nil
}
