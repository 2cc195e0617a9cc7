package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
	"github.com/cuthie/Data-Science-Portfolio/pkg/split"
)

// PositiveScores returns p(positive) for each row, where the positive
// class is the larger of the two labels the classifier was trained on.
func PositiveScores(c Classifier, X [][]float64) ([]float64, error) {
	classes := c.Classes()
	if len(classes) != 2 {
		return nil, fmt.Errorf("model: binary scores need 2 classes, have %d", len(classes))
	}
	proba := c.PredictProba(X)
	out := make([]float64, len(X))
	for i, p := range proba {
		out[i] = p[1]
	}
	return out, nil
}

// CVResult holds per-fold hold-out metrics and their mean and standard
// deviation.
type CVResult struct {
	Folds []Binomial
	Mean  map[string]float64
	Std   map[string]float64
}

// CrossValidate fits a fresh forest from newForest on each of k-1 folds and
// scores it on the remaining fold. Labels must be 0/1.
func CrossValidate(ctx context.Context, eng *engine.Engine, newForest func(fold int) *RandomForest,
	X [][]float64, y []int, k int, seed int64) (*CVResult, error) {
	folds, err := split.KFold(len(X), k, seed)
	if err != nil {
		return nil, err
	}
	res := &CVResult{Mean: map[string]float64{}, Std: map[string]float64{}}
	for f, hold := range folds {
		train := split.Complement(len(X), hold)
		trX, trY := rows(X, y, train)
		teX, teY := rows(X, y, hold)

		rf := newForest(f)
		if err := rf.Fit(ctx, eng, trX, trY); err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		score, err := PositiveScores(rf, teX)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		m, err := EvaluateBinomial(teY, score)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", f, err)
		}
		res.Folds = append(res.Folds, m)
	}
	if len(res.Folds) == 0 {
		return nil, errors.New("model: no folds evaluated")
	}
	for _, name := range BinomialMetricNames {
		vals := make([]float64, len(res.Folds))
		for i, m := range res.Folds {
			vals[i] = m.Values()[name]
		}
		res.Mean[name], res.Std[name] = meanStd(vals)
	}
	return res, nil
}

func rows(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for i, j := range idx {
		outX[i], outY[i] = X[j], y[j]
	}
	return outX, outY
}

// meanStd skips NaN values; the deviation is the sample (n-1) one.
func meanStd(v []float64) (float64, float64) {
	var n, sum float64
	for _, x := range v {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
	}
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	mean := sum / n
	if n < 2 {
		return mean, math.NaN()
	}
	ss := 0.0
	for _, x := range v {
		if !math.IsNaN(x) {
			ss += (x - mean) * (x - mean)
		}
	}
	return mean, math.Sqrt(ss / (n - 1))
}
