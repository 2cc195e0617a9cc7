package stats

// Diff returns x[i] - x[i-lag] for i >= lag. The result has len(x)-lag
// values, or none when x is not longer than lag.
func Diff(x []float64, lag int) []float64 {
	if lag <= 0 || len(x) <= lag {
		return []float64{}
	}
	out := make([]float64, len(x)-lag)
	for i := lag; i < len(x); i++ {
		out[i-lag] = x[i] - x[i-lag]
	}
	return out
}

// CumSum returns the running sum of x. Diff(CumSum(x), 1)[i-1] == x[i].
func CumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	s := 0.0
	for i, v := range x {
		s += v
		out[i] = s
	}
	return out
}
