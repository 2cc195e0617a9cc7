package model

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
	"github.com/cuthie/Data-Science-Portfolio/pkg/optim"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

var errDiverged = errors.New("training loss is not finite")

// LogisticRegression is a binary logistic model trained by mini-batch SGD
// on standardized features. Labels are 0/1.
type LogisticRegression struct {
	LearningRate float64
	Momentum     float64
	L2           float64
	Epochs       int
	BatchSize    int
	Seed         int64

	W    []float64 // weights on the standardized features
	B    float64
	Loss float64 // mean cross-entropy over the last epoch

	scaler *stats.StandardScaler
}

// NewLogisticRegression returns a model with the given step size and
// epoch count, batches of 64 and momentum 0.9.
func NewLogisticRegression(lr float64, epochs int, seed int64) *LogisticRegression {
	return &LogisticRegression{LearningRate: lr, Momentum: 0.9, Epochs: epochs, BatchSize: 64, Seed: seed}
}

// Fit trains the model from zero weights. Batches are reshuffled each epoch
// with a generator seeded from Seed.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return core.ConfigError("model.logistic", "%d rows and %d labels", len(X), len(y))
	}
	if m.Epochs <= 0 || m.LearningRate <= 0 {
		return core.ConfigError("model.logistic", "epochs %d and learning rate %v must be positive", m.Epochs, m.LearningRate)
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return core.ConfigError("model.logistic", "label %d in row %d is not 0/1", v, i)
		}
	}
	m.scaler = stats.NewStandardScaler()
	if err := m.scaler.Fit(X); err != nil {
		return core.ConfigError("model.logistic", "%v", err)
	}
	Z := m.scaler.Transform(X)

	batch := m.BatchSize
	if batch <= 0 || batch > len(Z) {
		batch = len(Z)
	}
	nf := len(Z[0])
	w, bias := make([]float64, nf), make([]float64, 1)
	wOpt := &optim.SGD{LearningRate: m.LearningRate, Momentum: m.Momentum, WeightDecay: m.L2}
	bOpt := &optim.SGD{LearningRate: m.LearningRate, Momentum: m.Momentum}
	rnd := rand.New(rand.NewSource(m.Seed))
	order := rnd.Perm(len(Z))

	for ep := 0; ep < m.Epochs; ep++ {
		rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		total := 0.0
		for start := 0; start < len(order); start += batch {
			idx := order[start:min(start+batch, len(order))]
			p := make([]float64, len(idx))
			yb := make([]int, len(idx))
			for k, i := range idx {
				p[k] = optim.Sigmoid(logit(w, bias[0], Z[i]))
				yb[k] = y[i]
			}
			loss, dz := optim.BCE(yb, p)
			total += loss * float64(len(idx))

			gw, gb := make([]float64, nf), []float64{0}
			for k, i := range idx {
				for j, v := range Z[i] {
					gw[j] += dz[k] * v
				}
				gb[0] += dz[k]
			}
			wOpt.Step(w, gw)
			bOpt.Step(bias, gb)
		}
		m.Loss = total / float64(len(Z))
		if math.IsNaN(m.Loss) || math.IsInf(m.Loss, 0) {
			return core.ConvergenceError("model.logistic", errDiverged)
		}
	}
	m.W, m.B = w, bias[0]
	return nil
}

func logit(w []float64, b float64, x []float64) float64 {
	for j, v := range x {
		b += w[j] * v
	}
	return b
}

// Classes reports the label set the model predicts.
func (m *LogisticRegression) Classes() []int { return []int{0, 1} }

// PredictProba returns [p(0), p(1)] per row.
func (m *LogisticRegression) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	m.score(X, out, 0, len(X))
	return out
}

// PredictProbaParallel is PredictProba with row blocks spread over the
// engine workers. A nil engine scores on the calling goroutine.
func (m *LogisticRegression) PredictProbaParallel(ctx context.Context, eng *engine.Engine, X [][]float64) ([][]float64, error) {
	if eng == nil {
		return m.PredictProba(X), ctx.Err()
	}
	out := make([][]float64, len(X))
	workers := eng.Threads()
	per := (len(X) + workers - 1) / workers
	err := eng.Run(ctx, workers, func(_ context.Context, w int) error {
		start := min(w*per, len(X))
		m.score(X, out, start, min(start+per, len(X)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *LogisticRegression) score(X, out [][]float64, start, end int) {
	for i := start; i < end; i++ {
		if m.scaler == nil {
			out[i] = []float64{0.5, 0.5}
			continue
		}
		z := m.B
		for j, v := range X[i] {
			z += m.W[j] * (v - m.scaler.Mean[j]) / m.scaler.Std[j]
		}
		p := optim.Sigmoid(z)
		out[i] = []float64{1 - p, p}
	}
}

// Predict labels each row 1 when p(1) is at least 0.5.
func (m *LogisticRegression) Predict(X [][]float64) []int {
	proba := m.PredictProba(X)
	score := make([]float64, len(proba))
	for i, p := range proba {
		score[i] = p[1]
	}
	return BinaryPredFromProba(score, 0.5)
}
