package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// Comparator selects how an outcome is tested against a threshold cutoff.
type Comparator int

const (
	Above Comparator = iota
	AtLeast
	Below
	AtMost
)

func (c Comparator) String() string {
	switch c {
	case Above:
		return ">"
	case AtLeast:
		return ">="
	case Below:
		return "<"
	case AtMost:
		return "<="
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// Matches reports whether v satisfies the comparison against cutoff.
func (c Comparator) Matches(v, cutoff float64) bool {
	switch c {
	case Above:
		return v > cutoff
	case AtLeast:
		return v >= cutoff
	case Below:
		return v < cutoff
	case AtMost:
		return v <= cutoff
	}
	return false
}

// Threshold is a single (comparator, cutoff) pair with a display label.
type Threshold struct {
	Label      string     `json:"label"`
	Comparator Comparator `json:"comparator"`
	Cutoff     float64    `json:"cutoff"`
}

// Expr renders the threshold as an expression such as ">10" or "<-10".
func (t Threshold) Expr() string {
	return t.Comparator.String() + strconv.FormatFloat(t.Cutoff, 'f', -1, 64)
}

// Probability is the share of outcomes satisfying a Threshold.
type Probability struct {
	Threshold Threshold `json:"threshold"`
	Count     int       `json:"count"`
	Fraction  float64   `json:"fraction"`
}

// DefaultThresholds returns the standard report thresholds: >0, >10, >20 and <-10.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Label: "Positive Growth", Comparator: Above, Cutoff: 0},
		{Label: ">10% Growth", Comparator: Above, Cutoff: 10},
		{Label: ">20% Growth", Comparator: Above, Cutoff: 20},
		{Label: "<-10% Loss", Comparator: Below, Cutoff: -10},
	}
}

// Fractions computes, for each threshold in order, the fraction of values satisfying it.
// With no values every fraction is 0.
func Fractions(values []float64, thresholds []Threshold) []Probability {
	out := make([]Probability, len(thresholds))
	for i, t := range thresholds {
		out[i].Threshold = t
	}
	if len(values) == 0 {
		return out
	}

	for _, v := range values {
		for i := range out {
			if out[i].Threshold.Comparator.Matches(v, out[i].Threshold.Cutoff) {
				out[i].Count++
			}
		}
	}

	total := float64(len(values))
	for i := range out {
		out[i].Fraction = float64(out[i].Count) / total
	}
	return out
}

// ParseThreshold parses expressions like ">10", ">=0", "<-10" or "<= -5.5".
// The label defaults to the expression followed by a percent sign.
func ParseThreshold(expr string) (Threshold, error) {
	s := strings.TrimSpace(expr)

	var c Comparator
	switch {
	case strings.HasPrefix(s, ">="):
		c, s = AtLeast, s[2:]
	case strings.HasPrefix(s, "<="):
		c, s = AtMost, s[2:]
	case strings.HasPrefix(s, ">"):
		c, s = Above, s[1:]
	case strings.HasPrefix(s, "<"):
		c, s = Below, s[1:]
	default:
		return Threshold{}, fmt.Errorf("threshold %q: missing comparator (>, >=, <, <=)", expr)
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	cutoff, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("threshold %q: %w", expr, err)
	}

	t := Threshold{Comparator: c, Cutoff: cutoff}
	t.Label = t.Expr() + "%"
	return t, nil
}
