package simulation

import (
	"math"
	"testing"
)

func TestNormalGenerator_Deterministic(t *testing.T) {
	a := NewNormalGenerator(42)
	b := NewNormalGenerator(42)

	for i := 0; i < 1000; i++ {
		if x, y := a.Next(5, 2), b.Next(5, 2); x != y {
			t.Fatalf("draw %d differs for identical seeds: %v vs %v", i, x, y)
		}
	}
}

func TestNormalGenerator_SpareIsUsedOnNextCall(t *testing.T) {
	g := NewNormalGenerator(1)

	_ = g.Standard()
	if !g.hasSpare {
		t.Fatalf("Expected a cached spare after the first draw")
	}
	spare := g.spare
	if got := g.Standard(); got != spare {
		t.Errorf("Expected the second draw to return the spare %v, got %v", spare, got)
	}
	if g.hasSpare {
		t.Errorf("Expected the spare to be consumed")
	}
}

func TestNormalGenerator_ZeroStdDev(t *testing.T) {
	g := NewNormalGenerator(9)
	for i := 0; i < 10; i++ {
		if got := g.Next(5.0, 0); got != 5.0 {
			t.Fatalf("Expected exactly the mean with zero deviation, got %v", got)
		}
	}
}

func TestNormalGenerator_Moments(t *testing.T) {
	const (
		n      = 200000
		mean   = 3.0
		stdDev = 2.0
	)
	g := NewNormalGenerator(2024)

	sum, sumSq := 0.0, 0.0
	within1 := 0
	for i := 0; i < n; i++ {
		x := g.Next(mean, stdDev)
		sum += x
		sumSq += x * x
		if math.Abs(x-mean) <= stdDev {
			within1++
		}
	}

	gotMean := sum / n
	gotStd := math.Sqrt(sumSq/n - gotMean*gotMean)

	if math.Abs(gotMean-mean) > 0.03 {
		t.Errorf("Expected mean ~%v, got %v", mean, gotMean)
	}
	if math.Abs(gotStd-stdDev) > 0.03 {
		t.Errorf("Expected std dev ~%v, got %v", stdDev, gotStd)
	}
	// ~68.27% of a normal distribution lies within one standard deviation.
	if frac := float64(within1) / n; math.Abs(frac-0.6827) > 0.01 {
		t.Errorf("Expected ~68.3%% within one sigma, got %.2f%%", frac*100)
	}
}
