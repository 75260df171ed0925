// Package stats provides the reductions applied across repetitions.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean is the arithmetic mean; NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// StdDev is the unbiased sample standard deviation. It is 0 for fewer than
// two samples.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// ConfidenceHalfWidth returns the half-width of the two-sided Student-t
// confidence interval of the mean at the given level (e.g. 0.95).
// Fewer than two samples, or a level outside (0,1), yield 0.
func ConfidenceHalfWidth(xs []float64, level float64) float64 {
	n := len(xs)
	if n < 2 || level <= 0 || level >= 1 {
		return 0
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	q := t.Quantile(1 - (1-level)/2)
	return q * StdDev(xs) / math.Sqrt(float64(n))
}

// SafeDiv divides and returns 0 for a (near) zero denominator.
func SafeDiv(n, d float64) float64 {
	const eps = 1e-12
	if d > eps || d < -eps {
		return n / d
	}
	return 0
}
