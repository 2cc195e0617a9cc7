package dataprep

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

// SMOTE oversamples the minority class of a binary label by interpolating
// between a minority row and one of its K nearest minority neighbours.
type SMOTE struct {
	// Ratio is the wanted minority:majority ratio after resampling.
	Ratio float64
	// K is the neighbour count; it is capped at minority-1.
	K    int
	Seed int64
	// Standardize searches neighbours on z-scored features. Synthetic rows
	// are always produced in the original units.
	Standardize bool
}

// ClassCounts maps each label to its number of rows.
func ClassCounts(y []int) map[int]int {
	out := make(map[int]int)
	for _, v := range y {
		out[v]++
	}
	return out
}

func (s SMOTE) validate() error {
	if !(s.Ratio > 0 && s.Ratio <= 1) {
		return core.ConfigError("dataprep.smote", "ratio must be in (0,1], got %v", s.Ratio)
	}
	if s.K < 1 {
		return core.ConfigError("dataprep.smote", "k must be positive, got %d", s.K)
	}
	return nil
}

// Resample returns X and y with synthetic minority rows appended after the
// original rows, which are returned unchanged and in order. Input already at
// or above the target ratio is returned as is. The neighbour search runs on
// eng when it is not nil; the result does not depend on it.
func (s SMOTE) Resample(ctx context.Context, eng *engine.Engine, X [][]float64, y []int) ([][]float64, []int, error) {
	if err := s.validate(); err != nil {
		return nil, nil, err
	}
	if len(X) != len(y) {
		return nil, nil, core.ConfigError("dataprep.smote", "%d rows but %d labels", len(X), len(y))
	}
	counts := ClassCounts(y)
	if len(counts) != 2 {
		return nil, nil, core.ConfigError("dataprep.smote", "need a binary label, found %d classes", len(counts))
	}
	classes := make([]int, 0, 2)
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	minority, majority := classes[0], classes[1]
	if counts[minority] > counts[majority] {
		minority, majority = majority, minority
	}
	nMin, nMaj := counts[minority], counts[majority]
	target := int(math.Floor(s.Ratio * float64(nMaj)))
	if nMin >= target {
		return X, y, nil
	}
	if nMin < 2 {
		return nil, nil, core.ConfigError("dataprep.smote", "need at least 2 minority rows, got %d", nMin)
	}

	minRows := make([][]float64, 0, nMin)
	for i, label := range y {
		if label == minority {
			minRows = append(minRows, X[i])
		}
	}
	search := minRows
	if s.Standardize {
		search = stats.NewStandardScaler().FitTransform(minRows)
	}
	k := min(s.K, nMin-1)
	nbrs, err := neighborTable(ctx, eng, search, k)
	if err != nil {
		return nil, nil, err
	}

	rnd := rand.New(rand.NewSource(s.Seed))
	outX := append(make([][]float64, 0, len(X)+target-nMin), X...)
	outY := append(make([]int, 0, len(y)+target-nMin), y...)
	for n := nMin; n < target; n++ {
		i := rnd.Intn(nMin)
		j := nbrs[i][rnd.Intn(len(nbrs[i]))]
		gap := rnd.Float64()
		a, b := minRows[i], minRows[j]
		row := make([]float64, len(a))
		for c := range a {
			row[c] = a[c] + gap*(b[c]-a[c])
		}
		outX = append(outX, row)
		outY = append(outY, minority)
	}
	return outX, outY, nil
}

// Rebalancer applies SMOTE to a Dataset. Features defaults to every numeric
// column other than Label. Synthetic rows carry missing values in any
// column that is neither a feature nor the label.
type Rebalancer struct {
	Label    string
	Features []string
	SMOTE    SMOTE
	Engine   *engine.Engine
}

func (r Rebalancer) features(ds *data.Dataset) []string {
	if len(r.Features) > 0 {
		return r.Features
	}
	var out []string
	for _, f := range ds.Schema().Fields {
		if f.Name != r.Label && (f.Kind == data.Float || f.Kind == data.Int) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Clean returns ds with synthetic minority rows appended.
func (r Rebalancer) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	y, err := ds.Ints(r.Label)
	if err != nil {
		return nil, err
	}
	names := r.features(ds)
	X, err := ds.Matrix(names...)
	if err != nil {
		return nil, err
	}
	outX, outY, err := r.SMOTE.Resample(ctx, r.Engine, X, y)
	if err != nil {
		return nil, err
	}
	if len(outY) == len(y) {
		return ds, nil
	}
	return appendSynthetic(ds, r.Label, names, outX[len(X):], outY[len(y):])
}

func appendSynthetic(ds *data.Dataset, label string, names []string, X [][]float64, y []int) (*data.Dataset, error) {
	pos := make(map[string]int, len(names))
	for j, n := range names {
		pos[n] = j
	}
	schema := ds.Schema()
	cols := make([]data.Column, len(schema.Fields))
	for c, f := range schema.Fields {
		col := data.Column{Field: f}
		col.Field.Nullable = true
		switch {
		case f.Name == label:
			col.Floats = make([]float64, len(y))
			for i, v := range y {
				col.Floats[i] = float64(v)
			}
		case f.Kind == data.String:
			col.Strings = make([]string, len(X))
		case f.Kind == data.Date:
			col.Times = make([]time.Time, len(X))
		default:
			col.Floats = make([]float64, len(X))
			j, ok := pos[f.Name]
			for i := range X {
				switch {
				case !ok:
					col.Floats[i] = math.NaN()
				case f.Kind == data.Int:
					col.Floats[i] = math.Round(X[i][j])
				default:
					col.Floats[i] = X[i][j]
				}
			}
		}
		cols[c] = col
	}
	synthetic, err := data.New(cols...)
	if err != nil {
		return nil, err
	}
	return ds.Concat(synthetic)
}
