// Package optim holds the gradient-descent optimizer and the losses used to
// train the linear baseline classifier.
package optim

// SGD is stochastic gradient descent with optional momentum and L2 weight
// decay.
type SGD struct {
	LearningRate float64
	Momentum     float64 // 0 disables momentum
	WeightDecay  float64 // L2 penalty added to each gradient

	velocity []float64
}

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

// Step updates weights in place from grads.
func (o *SGD) Step(weights, grads []float64) {
	if o.Momentum != 0 && len(o.velocity) != len(weights) {
		o.velocity = make([]float64, len(weights))
	}
	for i := range weights {
		g := grads[i] + o.WeightDecay*weights[i]
		if o.Momentum != 0 {
			o.velocity[i] = o.Momentum*o.velocity[i] + g
			g = o.velocity[i]
		}
		weights[i] -= o.LearningRate * g
	}
}
