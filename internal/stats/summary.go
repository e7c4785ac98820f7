package stats

import (
	"errors"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
)

// ErrNoOutcomes is returned when a summary or histogram is requested for an empty outcome set.
var ErrNoOutcomes = errors.New("empty outcome set")

// Summary describes an outcome set. Percentiles and VaR use the floor-index convention
// sorted[floor(p*n)], which is what the published risk figures are defined by.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P5     float64 `json:"p5"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	VaR95  float64 `json:"var_95"`
	VaR99  float64 `json:"var_99"`
}

// Summarize computes the Summary of values. The input slice is never reordered; sorting
// happens on a private copy. An empty input yields a zero Summary and ErrNoOutcomes.
func Summarize(values []float64) (Summary, error) {
	n := len(values)
	if n == 0 {
		return Summary{}, ErrNoOutcomes
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	slices.Sort(sorted)

	mean, err := stats.Mean(sorted)
	if err != nil {
		return Summary{}, err
	}

	// Sample deviation is undefined for a single outcome; report 0.
	stdDev := 0.0
	if n > 1 {
		stdDev, err = stats.StandardDeviationSample(sorted)
		if err != nil {
			return Summary{}, err
		}
	}

	return Summary{
		Count:  n,
		Mean:   mean,
		StdDev: stdDev,
		Min:    sorted[0],
		Max:    sorted[n-1],
		P5:     PercentileFloor(sorted, 0.05),
		P25:    PercentileFloor(sorted, 0.25),
		P50:    PercentileFloor(sorted, 0.50),
		P75:    PercentileFloor(sorted, 0.75),
		P95:    PercentileFloor(sorted, 0.95),
		VaR95:  -PercentileFloor(sorted, 0.05),
		VaR99:  -PercentileFloor(sorted, 0.01),
	}, nil
}

// PercentileFloor returns sorted[floor(p*n)] with the index clamped to [0, n-1].
// sorted must be in ascending order. It returns 0 for an empty slice.
func PercentileFloor(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Mean returns the arithmetic mean of values, or 0 when values is empty.
func Mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// PopulationStdDev returns the standard deviation of values dividing by n (not n-1).
// A single value has a deviation of 0; an empty slice returns 0.
func PopulationStdDev(values []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil || math.IsNaN(sd) {
		return 0
	}
	return sd
}
