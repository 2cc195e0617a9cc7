// Package stats provides descriptive statistics, least squares, differencing,
// unit-root testing and autocorrelation for float64 series.
//
// Missing values are NaN throughout; descriptive helpers skip them.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Finite returns the values of x that are neither NaN nor infinite.
func Finite(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Mean computes the average of the finite values of x, or NaN if none.
func Mean(x []float64) float64 {
	v := Finite(x)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// Std computes the sample standard deviation (n-1) of the finite values.
func Std(x []float64) float64 {
	v := Finite(x)
	if len(v) < 2 {
		return math.NaN()
	}
	return stat.StdDev(v, nil)
}

// Median returns the median of the finite values (allocates a copy).
func Median(x []float64) float64 {
	return Percentile(x, 50)
}

// Percentile returns the p-th percentile (0 <= p <= 100) of the finite
// values, linearly interpolating between closest ranks.
func Percentile(x []float64, p float64) float64 {
	cp := Finite(x)
	n := len(cp)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(cp)
	if p <= 0 {
		return cp[0]
	}
	if p >= 100 {
		return cp[n-1]
	}
	rank := p / 100 * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[upper]*weight
}

// Summary mirrors a describe() row: count, mean, std and quartiles.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Describe summarises the finite values of x.
func Describe(x []float64) Summary {
	v := Finite(x)
	return Summary{
		Count: len(v),
		Mean:  Mean(v),
		Std:   Std(v),
		Min:   Percentile(v, 0),
		Q25:   Percentile(v, 25),
		Q50:   Percentile(v, 50),
		Q75:   Percentile(v, 75),
		Max:   Percentile(v, 100),
	}
}

// Correlation computes the Pearson correlation of the pairs where both
// values are finite.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) {
		return math.NaN()
	}
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// ECDF returns the sorted finite values of x and the empirical cumulative
// probability at each of them.
func ECDF(x []float64) (xs, ps []float64) {
	xs = Finite(x)
	sort.Float64s(xs)
	ps = make([]float64, len(xs))
	for i := range xs {
		ps[i] = float64(i+1) / float64(len(xs))
	}
	return xs, ps
}
