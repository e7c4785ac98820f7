package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"growth-mcs/internal/forecast"
)

type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Entities     int
	Years        int
	StartYear    int
	Seed         int64
}

type ScenarioMetadata struct {
	Scenario     string    `json:"scenario"`
	Distribution string    `json:"distribution"`
	Seed         int64     `json:"seed"`
	GeneratedAt  time.Time `json:"generated_at"`
	Tickers      []string  `json:"tickers"`
}

func Generate(cfg GeneratorConfig) []forecast.Record {
	if cfg.StartYear == 0 {
		cfg.StartYear = time.Now().Year()
	}
	if cfg.Years <= 0 {
		cfg.Years = 5
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]forecast.Record, 0, cfg.Entities)
	for i := 0; i < cfg.Entities; i++ {
		rec := forecast.Record{Ticker: fmt.Sprintf("MCSTEST%d", i+1)}

		// 1. Entity baseline: mild growers sit around 5-10% a year
		base := 5.0 + rng.Float64()*5.0
		k, lambda := 2.5, 9.5

		for y := 0; y < cfg.Years; y++ {
			// 2. Determine Parameters
			switch cfg.Scenario {
			case "chaos":
				k = 0.8
			case "drift":
				ratio := float64(y) / float64(cfg.Years)
				k = 2.5 - (1.7 * ratio)
				lambda = 9.5 + (2.5 * ratio)
			}

			// 3. Sample the year's growth
			var growth float64
			if cfg.Distribution == "weibull" {
				// Centre the Weibull draw on the baseline.
				growth = base + weibullSample(rng, k, lambda) - lambda*math.Gamma(1+1/k)
			} else {
				growth = base + (rng.Float64()-0.5)*4.0
				if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
					growth -= 10 + rng.Float64()*15 // Controlled Black Swans
				}
				if cfg.Scenario == "drift" {
					growth -= 8.0 * float64(y) / float64(cfg.Years)
				}
			}

			rec.Points = append(rec.Points, forecast.Point{
				Year:   cfg.StartYear + y,
				Growth: math.Round(growth*100) / 100,
			})
		}
		records = append(records, rec)
	}
	return records
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Write renders records in the forecast file format read by forecast.Parse.
func Write(w io.Writer, records []forecast.Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		fmt.Fprintf(bw, "REVENUE FORECAST FOR %s (Generated)\n", rec.Ticker)
		for _, p := range rec.Points {
			fmt.Fprintf(bw, "%d: %.2f%%\n", p.Year, p.Growth)
		}
		fmt.Fprintln(bw, "----------------------------------------")
	}
	return bw.Flush()
}

func Save(outDir string, name string, cfg GeneratorConfig, records []forecast.Record) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	forecastPath := filepath.Join(outDir, fmt.Sprintf("%s.txt", name))
	metaPath := filepath.Join(outDir, fmt.Sprintf("%s_scenario.json", name))

	// Save Forecasts
	f, err := os.Create(forecastPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Write(f, records); err != nil {
		return "", err
	}

	// Save Scenario
	fm, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer fm.Close()

	meta := ScenarioMetadata{
		Scenario:     cfg.Scenario,
		Distribution: cfg.Distribution,
		Seed:         cfg.Seed,
		GeneratedAt:  time.Now().UTC(),
	}
	for _, rec := range records {
		meta.Tickers = append(meta.Tickers, rec.Ticker)
	}

	enc := json.NewEncoder(fm)
	enc.SetIndent("", "  ")
	return forecastPath, enc.Encode(meta)
}
