package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ACF returns the sample autocorrelation of x for lags 0..maxLag, or nil for
// a constant or empty series.
func ACF(x []float64, maxLag int) []float64 {
	n := len(x)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}
	mean := Mean(x)
	variance := 0.0
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	if variance == 0 {
		return nil
	}
	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (x[i] - mean) * (x[i-k] - mean)
		}
		acf[k] = sum / variance
	}
	return acf
}

// PACF returns the partial autocorrelation for lags 0..maxLag computed with
// the Durbin-Levinson recursion. PACF[0] is 1.
func PACF(x []float64, maxLag int) []float64 {
	acf := ACF(x, maxLag)
	if len(acf) < 2 {
		return nil
	}
	maxLag = len(acf) - 1
	pacf := make([]float64, maxLag+1)
	pacf[0] = 1
	prev := make([]float64, maxLag+1)
	cur := make([]float64, maxLag+1)
	prev[1] = acf[1]
	pacf[1] = acf[1]
	for k := 2; k <= maxLag; k++ {
		num, den := acf[k], 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
			den -= prev[j] * acf[j]
		}
		if den == 0 {
			break
		}
		cur[k] = num / den
		for j := 1; j < k; j++ {
			cur[j] = prev[j] - cur[k]*prev[k-j]
		}
		pacf[k] = cur[k]
		prev, cur = cur, prev
	}
	return pacf
}

// ConfBound is the approximate 95% band +-1.96/sqrt(n) for white noise.
func ConfBound(n int) float64 {
	return 1.96 / math.Sqrt(float64(n))
}

// SignificantLags lists the lags >= 1 whose value lies outside +-bound.
func SignificantLags(values []float64, bound float64) []int {
	var out []int
	for i := 1; i < len(values); i++ {
		if math.Abs(values[i]) > bound {
			out = append(out, i)
		}
	}
	return out
}

// LjungBoxResult is the portmanteau test for residual autocorrelation.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBox tests x for autocorrelation up to lags; fitdf is the number of
// estimated ARMA parameters. It returns nil when x is constant.
func LjungBox(x []float64, lags, fitdf int) *LjungBoxResult {
	n := len(x)
	if lags >= n {
		lags = n - 1
	}
	acf := ACF(x, lags)
	if len(acf) < 2 {
		return nil
	}
	q := 0.0
	for k := 1; k <= lags; k++ {
		q += acf[k] * acf[k] / float64(n-k)
	}
	q *= float64(n * (n + 2))
	dof := max(lags-fitdf, 1)
	chi := distuv.ChiSquared{K: float64(dof)}
	return &LjungBoxResult{Statistic: q, PValue: chi.Survival(q), Lags: lags, DOF: dof}
}
