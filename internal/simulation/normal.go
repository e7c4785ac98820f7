package simulation

import (
	"math"
	"math/rand"
)

// NormalGenerator draws normal variates with the Marsaglia polar method. Each accepted
// (u, v) pair yields two independent values; the second is kept as a spare for the next
// call. A generator is owned by a single goroutine and must not be shared.
type NormalGenerator struct {
	rng      *rand.Rand
	spare    float64
	hasSpare bool
}

// NewNormalGenerator returns a generator with its own source seeded with seed.
func NewNormalGenerator(seed int64) *NormalGenerator {
	return &NormalGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a draw from N(mean, stdDev^2).
func (g *NormalGenerator) Next(mean, stdDev float64) float64 {
	return mean + stdDev*g.Standard()
}

// Standard returns a draw from N(0, 1).
func (g *NormalGenerator) Standard() float64 {
	if g.hasSpare {
		g.hasSpare = false
		return g.spare
	}

	// Each round is accepted with probability pi/4.
	var u, v, s float64
	for {
		u = 2*g.rng.Float64() - 1
		v = 2*g.rng.Float64() - 1
		s = u*u + v*v
		if s < 1 && s != 0 {
			break
		}
	}

	mag := math.Sqrt(-2 * math.Log(s) / s)
	g.spare = v * mag
	g.hasSpare = true
	return u * mag
}
