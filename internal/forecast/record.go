package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// MaxYears is the soft limit on forecast years per entity. The parser drops
	// later years with a warning; the simulation itself has no hard bound.
	MaxYears = 30
	// MaxEntities is the soft limit on entities read from a single forecast file.
	MaxEntities = 50
)

var (
	// ErrNoForecasts is returned when an input contains no usable forecast section.
	ErrNoForecasts = errors.New("no valid forecast data found")
	// ErrEmptyTicker is returned for a record without an entity identifier.
	ErrEmptyTicker = errors.New("forecast record has no ticker")
	// ErrNoYears is returned for a record with an empty forecast horizon.
	ErrNoYears = errors.New("forecast record has no years")
)

// Point is a single year's point forecast. Growth is a percentage: 5.0 means 5%.
type Point struct {
	Year   int     `json:"year" jsonschema:"forecast year, e.g. 2025"`
	Growth float64 `json:"growth" jsonschema:"forecast growth for the year in percent, e.g. 5.5 for 5.5%"`
}

// Record is the forecast horizon for one entity, in chronological order as given.
type Record struct {
	Ticker string  `json:"ticker" jsonschema:"entity identifier, e.g. AAPL"`
	Points []Point `json:"points" jsonschema:"ordered per-year forecasts"`
}

// Years returns the forecast years in order.
func (r Record) Years() []int {
	years := make([]int, len(r.Points))
	for i, p := range r.Points {
		years[i] = p.Year
	}
	return years
}

// Growth returns the per-year growth percentages in order.
func (r Record) Growth() []float64 {
	growth := make([]float64, len(r.Points))
	for i, p := range r.Points {
		growth[i] = p.Growth
	}
	return growth
}

// Span returns the first and last forecast year. Both are 0 for an empty record.
func (r Record) Span() (first, last int) {
	if len(r.Points) == 0 {
		return 0, 0
	}
	return r.Points[0].Year, r.Points[len(r.Points)-1].Year
}

// Validate checks a record produced outside the file parser.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return ErrEmptyTicker
	}
	if len(r.Points) == 0 {
		return fmt.Errorf("%s: %w", r.Ticker, ErrNoYears)
	}
	if len(r.Points) > MaxYears {
		return fmt.Errorf("%s: %d forecast years exceeds the limit of %d", r.Ticker, len(r.Points), MaxYears)
	}
	for _, p := range r.Points {
		if math.IsNaN(p.Growth) || math.IsInf(p.Growth, 0) {
			return fmt.Errorf("%s: year %d has a non-finite growth value", r.Ticker, p.Year)
		}
	}
	return nil
}
