// Package split partitions a Dataset into train and test subsets.
package split

import (
	"math"
	"math/rand"
	"time"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
)

// Split holds the train and test partitions of a dataset together with the
// source row indices of each partition.
type Split struct {
	Train    *data.Dataset
	Test     *data.Dataset
	TrainIdx []int
	TestIdx  []int
}

func fromIndices(ds *data.Dataset, train, test []int) Split {
	return Split{
		Train:    ds.Take(train),
		Test:     ds.Take(test),
		TrainIdx: train,
		TestIdx:  test,
	}
}

// Random is a shuffled split with a fixed train fraction and seed.
type Random struct {
	TrainFraction float64
	Seed          int64
}

// Split partitions ds. The same seed always yields the same partition.
func (r Random) Split(ds *data.Dataset) (Split, error) {
	if !(r.TrainFraction > 0 && r.TrainFraction < 1) {
		return Split{}, core.ConfigError("split.random", "train fraction must be in (0,1), got %v", r.TrainFraction)
	}
	train, test := Indices(ds.Len(), r.TrainFraction, r.Seed)
	return fromIndices(ds, train, test), nil
}

// Indices shuffles 0..n-1 with a seeded permutation and returns the first
// floor(fraction*n) indices as train and the rest as test.
func Indices(n int, trainFraction float64, seed int64) (train, test []int) {
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	nTrain := int(math.Floor(trainFraction * float64(n)))
	train = append([]int{}, indices[:nTrain]...)
	test = append([]int{}, indices[nTrain:]...)
	return train, test
}

// ByTime sends every row dated before Cutoff to train and the rest to test.
// Row order is preserved within each partition.
type ByTime struct {
	Column string
	Cutoff time.Time
}

// Split partitions ds on the date column. Rows without a date are rejected.
func (b ByTime) Split(ds *data.Dataset) (Split, error) {
	times, err := ds.Times(b.Column)
	if err != nil {
		return Split{}, err
	}
	var train, test []int
	for i, ts := range times {
		switch {
		case ts.IsZero():
			return Split{}, core.ParseError("split.time", "row %d has no %q value", i, b.Column)
		case ts.Before(b.Cutoff):
			train = append(train, i)
		default:
			test = append(test, i)
		}
	}
	return fromIndices(ds, train, test), nil
}

// InSample uses the whole dataset for training and leaves test empty; the
// model is evaluated on the data it was fitted to.
type InSample struct{}

// Split returns ds as the train partition.
func (InSample) Split(ds *data.Dataset) (Split, error) {
	train := make([]int, ds.Len())
	for i := range train {
		train[i] = i
	}
	return fromIndices(ds, train, []int{}), nil
}

// KFold shuffles 0..n-1 with a seeded permutation and deals the indices
// round-robin into k folds.
func KFold(n, k int, seed int64) ([][]int, error) {
	if k < 2 || k > n {
		return nil, core.ConfigError("split.kfold", "need 2 <= k <= %d, got %d", n, k)
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)
	folds := make([][]int, k)
	for i := range n {
		folds[i%k] = append(folds[i%k], indices[i])
	}
	return folds, nil
}

// Complement returns the indices of 0..n-1 that are not in fold.
func Complement(n int, fold []int) []int {
	in := make([]bool, n)
	for _, i := range fold {
		in[i] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := range n {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}
