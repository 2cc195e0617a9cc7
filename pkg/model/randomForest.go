package model

import (
	"context"
	"math"
	"math/rand"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
)

// RandomForest for classification
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // 0 => floor(sqrt(p)), at least 1
	RandomState     int64

	// Internal state
	Trees   []*DecisionTreeClassifier
	classes []int
}

// Option functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithForestMaxDepth(d int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxDepth = d }
}
func WithForestMaxFeatures(k int) RandomForestOption {
	return func(rf *RandomForest) { rf.MaxFeatures = k }
}
func WithForestMinSamplesLeaf(n int) RandomForestOption {
	return func(rf *RandomForest) { rf.MinSamplesLeaf = n }
}
func WithSeed(seed int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Validate rejects hyperparameters no forest can be grown with.
func (rf *RandomForest) Validate() error {
	switch {
	case rf.NEstimators < 1:
		return core.ConfigError("model.forest", "tree count must be positive, got %d", rf.NEstimators)
	case rf.MaxDepth < 0:
		return core.ConfigError("model.forest", "max depth must not be negative, got %d", rf.MaxDepth)
	case rf.MaxFeatures < 0:
		return core.ConfigError("model.forest", "max features must not be negative, got %d", rf.MaxFeatures)
	case rf.MinSamplesLeaf < 0:
		return core.ConfigError("model.forest", "min samples per leaf must not be negative, got %d", rf.MinSamplesLeaf)
	}
	return nil
}

// Fit grows NEstimators trees on eng. Tree i draws its bootstrap sample and
// feature subsets from RandomState+i, so the forest does not depend on how
// the engine schedules the trees.
func (rf *RandomForest) Fit(ctx context.Context, eng *engine.Engine, X [][]float64, y []int) error {
	if err := rf.Validate(); err != nil {
		return err
	}
	if len(X) == 0 {
		return core.ConfigError("model.forest", "no rows to fit")
	}
	n := len(X)
	if len(y) != n {
		return core.ConfigError("model.forest", "%d rows but %d labels", n, len(y))
	}
	p := len(X[0])
	maxFeatures := rf.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = max(int(math.Sqrt(float64(p))), 1)
	}
	rf.classes = sortedClasses(y)
	trees := make([]*DecisionTreeClassifier, rf.NEstimators)

	err := eng.Run(ctx, rf.NEstimators, func(ctx context.Context, idx int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seed := rf.RandomState + int64(idx)
		treeRand := rand.New(rand.NewSource(seed))

		// bootstrap by index, not by copying rows
		sample := make([]int, n)
		for j := range sample {
			sample[j] = treeRand.Intn(n)
		}
		tree := NewDecisionTreeClassifier(
			WithMaxDepth(rf.MaxDepth),
			WithMinSamplesSplit(rf.MinSamplesSplit),
			WithMinSamplesLeaf(rf.MinSamplesLeaf),
			WithMaxFeatures(maxFeatures),
			WithRandomState(treeRand.Int63()),
		)
		if err := tree.FitSample(X, y, sample, rf.classes); err != nil {
			return err
		}
		trees[idx] = tree
		return nil
	})
	if err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

// Classes returns the labels in PredictProba order.
func (rf *RandomForest) Classes() []int { return rf.classes }

// PredictProba averages the class probabilities of every tree.
func (rf *RandomForest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(rf.classes))
	}
	for _, tree := range rf.Trees {
		for i, x := range X {
			for c, v := range tree.predictProbaSingle(x) {
				out[i][c] += v
			}
		}
	}
	k := float64(len(rf.Trees))
	for i := range out {
		for c := range out[i] {
			out[i][c] /= k
		}
	}
	return out
}

// Predict returns the class with the highest mean probability.
func (rf *RandomForest) Predict(X [][]float64) []int {
	proba := rf.PredictProba(X)
	out := make([]int, len(X))
	for i, p := range proba {
		out[i] = rf.classes[argmaxFloat(p)]
	}
	return out
}

// FeatureImportances is the mean of the per-tree normalised
// mean-decrease-impurity importances.
func (rf *RandomForest) FeatureImportances() []float64 {
	if len(rf.Trees) == 0 {
		return nil
	}
	out := make([]float64, rf.Trees[0].nFeatures)
	for _, tree := range rf.Trees {
		for j, v := range tree.FeatureImportances() {
			out[j] += v
		}
	}
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for j := range out {
			out[j] /= sum
		}
	}
	return out
}
