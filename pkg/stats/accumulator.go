package stats

import "math"

// Accumulator keeps a running mean and variance (Welford) without storing
// the samples.
type Accumulator struct {
	count int
	mean  float64
	m2    float64
	min   float64
	max   float64
	sum   float64
}

// Add folds one sample in.
func (a *Accumulator) Add(x float64) {
	a.count++
	if a.count == 1 {
		a.min, a.max = x, x
	} else {
		a.min = math.Min(a.min, x)
		a.max = math.Max(a.max, x)
	}
	a.sum += x
	d := x - a.mean
	a.mean += d / float64(a.count)
	a.m2 += d * (x - a.mean)
}

// Count is the number of samples added so far.
func (a *Accumulator) Count() int { return a.count }

func (a *Accumulator) Sum() float64 { return a.sum }

// Mean returns the running mean, 0 before the first sample.
func (a *Accumulator) Mean() float64 { return a.mean }

// StdDev returns the running sample standard deviation.
func (a *Accumulator) StdDev() float64 {
	if a.count < 2 {
		return 0
	}
	return math.Sqrt(a.m2 / float64(a.count-1))
}

func (a *Accumulator) Min() float64 { return a.min }

func (a *Accumulator) Max() float64 { return a.max }
