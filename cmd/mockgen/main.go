package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"growth-mcs/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./.cache", "Output directory for mock files")
	name := flag.String("name", "Forecasts", "Base name of the generated files")
	count := flag.Int("count", 5, "Number of entities to generate")
	years := flag.Int("years", 5, "Forecast years per entity")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Entities:     *count,
		Years:        *years,
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Entities: %d, Years: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Entities, cfg.Years, *outDir)

	records := engine.Generate(cfg)

	path, err := engine.Save(*outDir, *name, cfg, records)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Wrote %s\n", path)
}
