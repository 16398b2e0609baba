// Package odds turns provider bookmaker blocks into normalized quotes and a
// consensus moneyline.
package odds

import (
	"math"
	"sort"
)

// MoneylineToProb converts American odds to an implied win probability
func MoneylineToProb(ml float64) float64 {
	if ml < 0 {
		a := math.Abs(ml)
		return a / (a + 100)
	}
	return 100 / (ml + 100)
}

// Median returns the median of xs without modifying it. Odd length gives the
// middle value, even length the mean of the two middle values.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	m := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[m]
	}
	return (sorted[m-1] + sorted[m]) / 2
}

// RoundHalfUp rounds to the nearest integer with halves going toward +Inf,
// so -110.5 becomes -110 and 110.5 becomes 111.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
