package simulation_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"growth-mcs/internal/forecast"
	"growth-mcs/internal/simulation"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func seededEngine(t *testing.T, trials, workers int) *simulation.Engine {
	t.Helper()
	cfg := simulation.DefaultConfig()
	cfg.Trials = trials
	cfg.Workers = workers
	e := simulation.NewEngine(cfg)
	e.SetSeed(42)
	return e
}

func TestRun_FlatForecastCompoundsExactly(t *testing.T) {
	// Identical yearly forecasts have no dispersion, so sigma is 0 whatever the volatility factor.
	rec := forecast.Record{Ticker: "FLAT", Points: []forecast.Point{{Year: 2024, Growth: 5.0}, {Year: 2025, Growth: 5.0}}}

	res, err := seededEngine(t, 2000, 4).Run(context.Background(), rec)
	require.NoError(t, err)

	multiplier := 1.0
	for _, p := range rec.Points {
		multiplier *= 1 + p.Growth/100
	}
	want := (multiplier - 1) * 100
	if math.Abs(want-10.25) > 1e-9 {
		t.Fatalf("fixture sanity: want %v", want)
	}

	if res.NoiseStdDev != 0 {
		t.Errorf("Expected sigma 0, got %v", res.NoiseStdDev)
	}
	for i, v := range res.Outcomes {
		if v != want {
			t.Fatalf("trial %d: Expected %v, got %v", i+1, want, v)
		}
	}

	s := res.Summary
	if math.Abs(s.Mean-10.25) > 1e-9 {
		t.Errorf("Expected mean 10.25, got %v", s.Mean)
	}
	if s.StdDev > 1e-9 {
		t.Errorf("Expected StdDev 0, got %v", s.StdDev)
	}
	for name, v := range map[string]float64{"P5": s.P5, "P25": s.P25, "P50": s.P50, "P75": s.P75, "P95": s.P95} {
		if v != want {
			t.Errorf("Expected %s = %v, got %v", name, want, v)
		}
	}
	if !res.Histogram.Degenerate || res.Histogram.Counts[0] != 2000 {
		t.Errorf("Expected a single-spike histogram, got %+v", res.Histogram)
	}
}

func TestRun_ZeroGrowthSingleYear(t *testing.T) {
	rec := forecast.Record{Ticker: "ZERO", Points: []forecast.Point{{Year: 2025, Growth: 0}}}

	res, err := seededEngine(t, 10000, 8).Run(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 10000)

	for i, v := range res.Outcomes {
		if v != 0 {
			t.Fatalf("trial %d: Expected 0, got %v", i+1, v)
		}
	}
	if res.Summary.VaR95 != 0 || res.Summary.VaR99 != 0 {
		t.Errorf("Expected VaR 0, got %v / %v", res.Summary.VaR95, res.Summary.VaR99)
	}
	if res.Probabilities[0].Fraction != 0 {
		t.Errorf("Expected 0 probability of positive growth, got %v", res.Probabilities[0].Fraction)
	}
}

func TestRun_NoiseDerivation(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.Trials = 5000
	cfg.Workers = 2
	cfg.VolatilityFactor = 2.0
	e := simulation.NewEngine(cfg)
	e.SetSeed(5)

	rec := forecast.Record{Ticker: "DISP", Points: []forecast.Point{{Year: 2025, Growth: 10}, {Year: 2026, Growth: 20}}}
	res, err := e.Run(context.Background(), rec)
	require.NoError(t, err)

	// Population deviation of {10, 20} is 5; sigma = 5 * 2.
	if res.ForecastMean != 15 || res.ForecastStdDev != 5 || res.NoiseStdDev != 10 {
		t.Errorf("Expected mean 15, dispersion 5, sigma 10, got %v, %v, %v", res.ForecastMean, res.ForecastStdDev, res.NoiseStdDev)
	}

	require.Len(t, res.Yearly, 2)
	for i, y := range res.Yearly {
		if y.Year != rec.Points[i].Year || y.Forecast != rec.Points[i].Growth {
			t.Errorf("year %d: unexpected labels %+v", i, y)
		}
		if y.Summary.Count != 5000 {
			t.Errorf("year %d: Expected 5000 samples, got %d", y.Year, y.Summary.Count)
		}
		if math.Abs(y.Summary.Mean-y.Forecast) > 0.6 {
			t.Errorf("year %d: simulated mean %v far from forecast %v", y.Year, y.Summary.Mean, y.Forecast)
		}
		if math.Abs(y.Summary.StdDev-10) > 0.5 {
			t.Errorf("year %d: simulated deviation %v far from sigma 10", y.Year, y.Summary.StdDev)
		}
	}

	if res.Histogram.Total() != 5000 {
		t.Errorf("Expected 5000 binned outcomes, got %d", res.Histogram.Total())
	}
	if len(res.Histogram.Counts) != simulation.DefaultHistogramWidth {
		t.Errorf("Expected %d bins, got %d", simulation.DefaultHistogramWidth, len(res.Histogram.Counts))
	}

	p := res.Probabilities
	if !(p[2].Fraction <= p[1].Fraction && p[1].Fraction <= p[0].Fraction) {
		t.Errorf("Expected nested threshold fractions, got %+v", p)
	}
}

func TestRun_EmptyForecast(t *testing.T) {
	_, err := seededEngine(t, 100, 2).Run(context.Background(), forecast.Record{Ticker: "NONE"})
	if !errors.Is(err, simulation.ErrNoForecastYears) {
		t.Errorf("Expected ErrNoForecastYears, got %v", err)
	}
}

func TestRunBatch_SkipsInvalidEntities(t *testing.T) {
	records := []forecast.Record{
		{Ticker: "AAA", Points: []forecast.Point{{Year: 2025, Growth: 4}, {Year: 2026, Growth: 6}}},
		{Ticker: "EMPTY"},
		{Ticker: "CCC", Points: []forecast.Point{{Year: 2025, Growth: -3}}},
	}

	batch := seededEngine(t, 500, 4).RunBatch(context.Background(), records)
	require.NoError(t, batch.Err)
	require.NotEmpty(t, batch.RunID)

	var tickers []string
	for _, r := range batch.Results {
		tickers = append(tickers, r.Ticker)
	}
	if diff := cmp.Diff([]string{"AAA", "CCC"}, tickers); diff != "" {
		t.Errorf("unexpected results (-want +got):\n%s", diff)
	}

	require.Len(t, batch.Skipped, 1)
	if batch.Skipped[0].Ticker != "EMPTY" || !errors.Is(batch.Skipped[0].Err, simulation.ErrNoForecastYears) {
		t.Errorf("Expected EMPTY skipped for missing years, got %+v", batch.Skipped[0])
	}
}

func TestRunBatch_ParallelEntitiesAreReproducible(t *testing.T) {
	records := []forecast.Record{
		{Ticker: "A", Points: []forecast.Point{{Year: 2025, Growth: 4}, {Year: 2026, Growth: 9}}},
		{Ticker: "B", Points: []forecast.Point{{Year: 2025, Growth: 12}, {Year: 2026, Growth: 2}}},
		{Ticker: "C", Points: []forecast.Point{{Year: 2025, Growth: -1}, {Year: 2026, Growth: 3}}},
	}

	// Two workers and three entities: entities run in parallel with one trial worker each.
	first := seededEngine(t, 800, 2).RunBatch(context.Background(), records)
	second := seededEngine(t, 800, 2).RunBatch(context.Background(), records)

	require.Len(t, first.Results, 3)
	require.Len(t, second.Results, 3)
	for i := range first.Results {
		if diff := cmp.Diff(first.Results[i].Outcomes, second.Results[i].Outcomes); diff != "" {
			t.Errorf("%s: outcomes differ between seeded batches:\n%s", first.Results[i].Ticker, diff)
		}
	}
	if cmp.Equal(first.Results[0].Outcomes, first.Results[1].Outcomes) {
		t.Errorf("Expected different entities to draw different noise")
	}
}

func TestRunBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []forecast.Record{{Ticker: "A", Points: []forecast.Point{{Year: 2025, Growth: 4}}}}
	batch := seededEngine(t, 100, 4).RunBatch(ctx, records)

	if !errors.Is(batch.Err, context.Canceled) {
		t.Errorf("Expected the batch to report cancellation, got %v", batch.Err)
	}
	if len(batch.Results) != 0 {
		t.Errorf("Expected no results from a cancelled batch, got %d", len(batch.Results))
	}
}

func TestRunBatch_AllocationFailureIsEntityFatal(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.Trials = 1000
	cfg.Workers = 1
	cfg.MaxCells = 2500 // room for 1000 trials x 1 year, not x 3 years
	e := simulation.NewEngine(cfg)

	records := []forecast.Record{
		{Ticker: "BIG", Points: []forecast.Point{{Year: 2025, Growth: 1}, {Year: 2026, Growth: 2}, {Year: 2027, Growth: 3}}},
		{Ticker: "SMALL", Points: []forecast.Point{{Year: 2025, Growth: 1}}},
	}
	batch := e.RunBatch(context.Background(), records)

	require.Len(t, batch.Results, 1)
	if batch.Results[0].Ticker != "SMALL" {
		t.Errorf("Expected SMALL to complete, got %s", batch.Results[0].Ticker)
	}
	require.Len(t, batch.Skipped, 1)
	if !errors.Is(batch.Skipped[0].Err, simulation.ErrAllocation) {
		t.Errorf("Expected ErrAllocation for BIG, got %v", batch.Skipped[0].Err)
	}
}

func TestRunBatch_ParallelEntitiesShareCellCap(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.Trials = 1000
	cfg.Workers = 2
	cfg.MaxCells = 3000 // 1000 trials x 1 year fits once, not twice at the same time
	rec := func(ticker string) forecast.Record {
		return forecast.Record{Ticker: ticker, Points: []forecast.Point{{Year: 2025, Growth: 1}}}
	}

	single := simulation.NewEngine(cfg).RunBatch(context.Background(), []forecast.Record{rec("A")})
	require.Len(t, single.Results, 1)

	pair := simulation.NewEngine(cfg).RunBatch(context.Background(), []forecast.Record{rec("A"), rec("B")})
	require.Empty(t, pair.Results)
	require.Len(t, pair.Skipped, 2)
	for _, sk := range pair.Skipped {
		if !errors.Is(sk.Err, simulation.ErrAllocation) {
			t.Errorf("Expected ErrAllocation for %s, got %v", sk.Ticker, sk.Err)
		}
	}
}

func TestRunBatch_ProgressPerEntity(t *testing.T) {
	records := []forecast.Record{
		{Ticker: "AAPL", Points: []forecast.Point{{Year: 2025, Growth: 5}, {Year: 2026, Growth: 7}}},
		{Ticker: "MSFT", Points: []forecast.Point{{Year: 2025, Growth: 10}}},
	}
	e := seededEngine(t, 300, 1)
	p := &simulation.Progress{}
	e.SetProgress(p)

	batch := e.RunBatch(context.Background(), records)
	require.Len(t, batch.Results, 2)

	want := []simulation.EntityProgress{
		{Ticker: "AAPL", Done: 300, Total: 300},
		{Ticker: "MSFT", Done: 300, Total: 300},
	}
	if diff := cmp.Diff(want, p.Entities()); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, int64(600), p.Done())
	require.Equal(t, int64(600), p.Total())
}
