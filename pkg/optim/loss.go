package optim

import "math"

// Sigmoid is the logistic function, evaluated without overflow for large
// negative inputs.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// BCE returns the mean binary cross-entropy of probabilities p against 0/1
// labels y, and its gradient with respect to the logits.
func BCE(y []int, p []float64) (float64, []float64) {
	n := len(y)
	s := 0.0
	grad := make([]float64, n)
	for i := range n {
		q := math.Min(math.Max(p[i], 1e-12), 1-1e-12)
		t := float64(y[i])
		s += -(t*math.Log(q) + (1-t)*math.Log(1-q))
		grad[i] = (p[i] - t) / float64(n)
	}
	return s / float64(n), grad
}
