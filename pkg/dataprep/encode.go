package dataprep

import (
	"context"
	"sort"

	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
)

// Levels returns the distinct entries of values in sorted order.
func Levels(values []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// LabelEncode codes each category by its position among the sorted classes.
func LabelEncode(values []string) ([]int, []string) {
	classes := Levels(values)
	code := make(map[string]int, len(classes))
	for i, c := range classes {
		code[c] = i
	}
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = code[v]
	}
	return out, classes
}

// TreatmentCode builds 0/1 indicator columns for every level except the
// first sorted one, which is the reference level.
func TreatmentCode(values []string) (levels []string, cols [][]float64) {
	all := Levels(values)
	if len(all) < 2 {
		return nil, nil
	}
	levels = all[1:]
	pos := make(map[string]int, len(levels))
	for j, l := range levels {
		pos[l] = j
	}
	cols = make([][]float64, len(levels))
	for j := range cols {
		cols[j] = make([]float64, len(values))
	}
	for i, v := range values {
		if j, ok := pos[v]; ok {
			cols[j][i] = 1
		}
	}
	return levels, cols
}

// LabelEncoder adds an Int column Target holding the sorted-class code of
// the string column Source.
type LabelEncoder struct {
	Source string
	Target string
}

// Clean adds or replaces the Target column.
func (l LabelEncoder) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := ds.Strings(l.Source)
	if err != nil {
		return nil, err
	}
	codes, _ := LabelEncode(src)
	return ds.With(data.Ints(l.Target, codes))
}
