package stats

import (
	"errors"
	"math"
)

// ErrInvalidWidth is returned when a histogram is requested with fewer than one bin.
var ErrInvalidWidth = errors.New("histogram width must be positive")

// Histogram holds equal-width bin counts spanning [Min, Max].
type Histogram struct {
	Counts []int   `json:"counts"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Degenerate is set when every outcome was identical and a nominal range of 1.0 was used.
	Degenerate bool `json:"degenerate,omitempty"`
}

// Bin buckets values into width equal-width bins. The bin for v is
// floor((v-min)/range*(width-1)), clamped into [0, width-1]. values is not modified.
func Bin(values []float64, width int) (Histogram, error) {
	if width < 1 {
		return Histogram{}, ErrInvalidWidth
	}
	if len(values) == 0 {
		return Histogram{}, ErrNoOutcomes
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	h := Histogram{
		Counts: make([]int, width),
		Min:    lo,
		Max:    hi,
	}

	span := hi - lo
	if span <= 0 {
		span = 1.0
		h.Degenerate = true
	}

	for _, v := range values {
		idx := int(math.Floor((v - lo) / span * float64(width-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= width {
			idx = width - 1
		}
		h.Counts[idx]++
	}

	return h, nil
}

// Total returns the number of binned outcomes.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// MaxCount returns the height of the tallest bin.
func (h Histogram) MaxCount() int {
	m := 0
	for _, c := range h.Counts {
		if c > m {
			m = c
		}
	}
	return m
}

// BinStart returns the lower edge of bin i.
func (h Histogram) BinStart(i int) float64 {
	if len(h.Counts) <= 1 {
		return h.Min
	}
	span := h.Max - h.Min
	if h.Degenerate {
		span = 1.0
	}
	return h.Min + span*float64(i)/float64(len(h.Counts)-1)
}
