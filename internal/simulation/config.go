package simulation

import (
	"fmt"
	"math"
	"runtime"

	"growth-mcs/internal/stats"
)

const (
	DefaultTrials           = 10000
	DefaultVolatilityFactor = 1.5
	DefaultHistogramWidth   = 60
	DefaultHistogramHeight  = 20
	// DefaultMaxCells caps trials*(years+1) outcome cells held for one entity (2 GiB of float64).
	DefaultMaxCells = 1 << 28
)

// Config controls one simulation run.
type Config struct {
	Trials           int               `json:"trials"`
	VolatilityFactor float64           `json:"volatility_factor"`
	HistogramWidth   int               `json:"histogram_width"`
	HistogramHeight  int               `json:"histogram_height"`
	Workers          int               `json:"workers"`
	Thresholds       []stats.Threshold `json:"thresholds,omitempty"`
	// Seed makes runs reproducible for a fixed Workers value. Nil seeds from the clock.
	Seed     *int64 `json:"seed,omitempty"`
	MaxCells int    `json:"-"`
}

// DefaultConfig returns the documented defaults, with one worker per available CPU.
func DefaultConfig() Config {
	return Config{
		Trials:           DefaultTrials,
		VolatilityFactor: DefaultVolatilityFactor,
		HistogramWidth:   DefaultHistogramWidth,
		HistogramHeight:  DefaultHistogramHeight,
		Workers:          runtime.NumCPU(),
		Thresholds:       stats.DefaultThresholds(),
		MaxCells:         DefaultMaxCells,
	}
}

// Sanitize returns a copy of c with invalid values replaced by their defaults, plus one
// warning per user-visible correction. Worker count, thresholds and the cell cap fall back
// silently.
func (c Config) Sanitize() (Config, []string) {
	var warnings []string

	if c.Trials <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid number of simulations (%d). Using default: %d", c.Trials, DefaultTrials))
		c.Trials = DefaultTrials
	}
	if c.VolatilityFactor <= 0 || math.IsNaN(c.VolatilityFactor) || math.IsInf(c.VolatilityFactor, 0) {
		warnings = append(warnings, fmt.Sprintf("Invalid volatility factor (%g). Using default: %.1f", c.VolatilityFactor, DefaultVolatilityFactor))
		c.VolatilityFactor = DefaultVolatilityFactor
	}
	if c.HistogramWidth <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid graph width (%d). Using default: %d", c.HistogramWidth, DefaultHistogramWidth))
		c.HistogramWidth = DefaultHistogramWidth
	}
	if c.HistogramHeight <= 0 {
		warnings = append(warnings, fmt.Sprintf("Invalid graph height (%d). Using default: %d", c.HistogramHeight, DefaultHistogramHeight))
		c.HistogramHeight = DefaultHistogramHeight
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if len(c.Thresholds) == 0 {
		c.Thresholds = stats.DefaultThresholds()
	}
	if c.MaxCells <= 0 {
		c.MaxCells = DefaultMaxCells
	}

	return c, warnings
}
