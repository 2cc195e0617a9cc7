package dataprep

import (
	"context"
	"math"
	"strings"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
)

// FirstToken derives Target from the first item of the delimited string in
// Source. Empty input, or an empty first item, becomes Fallback.
type FirstToken struct {
	Source   string
	Target   string
	Sep      string // defaults to ","
	Fallback string
}

// Token applies the rule to a single value.
func (f FirstToken) Token(s string) string {
	sep := f.Sep
	if sep == "" {
		sep = ","
	}
	first, _, _ := strings.Cut(strings.TrimSpace(s), sep)
	if first = strings.TrimSpace(first); first == "" {
		return f.Fallback
	}
	return first
}

// Clean adds or replaces the Target column.
func (f FirstToken) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := ds.Strings(f.Source)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(src))
	for i, s := range src {
		out[i] = f.Token(s)
	}
	return ds.With(data.Strings(f.Target, out))
}

// Buckets labels numeric values by right-closed intervals
// (Edges[i], Edges[i+1]]. Values outside every interval and missing values
// get the Missing label.
type Buckets struct {
	Source  string
	Target  string
	Edges   []float64
	Labels  []string
	Missing string
}

func (b Buckets) validate() error {
	if len(b.Edges) < 2 || len(b.Labels) != len(b.Edges)-1 {
		return core.ConfigError("dataprep.buckets", "%d edges need %d labels, got %d",
			len(b.Edges), max(len(b.Edges)-1, 1), len(b.Labels))
	}
	for i := 1; i < len(b.Edges); i++ {
		if !(b.Edges[i] > b.Edges[i-1]) {
			return core.ConfigError("dataprep.buckets", "edges must increase strictly: %v", b.Edges)
		}
	}
	return nil
}

// Label returns the bucket label of v.
func (b Buckets) Label(v float64) string {
	if math.IsNaN(v) {
		return b.Missing
	}
	for i := 1; i < len(b.Edges); i++ {
		if v > b.Edges[i-1] && v <= b.Edges[i] {
			return b.Labels[i-1]
		}
	}
	return b.Missing
}

// Clean adds or replaces the Target column.
func (b Buckets) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, err := ds.Floats(b.Source)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(src))
	for i, v := range src {
		out[i] = b.Label(v)
	}
	return ds.With(data.Strings(b.Target, out))
}

// Alias copies the Source column under the name Target.
type Alias struct {
	Source string
	Target string
}

// Clean adds or replaces the Target column.
func (a Alias) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := ds.Column(a.Source)
	if err != nil {
		return nil, err
	}
	c.Field.Name = a.Target
	return ds.With(c)
}

// LogTransform applies log(x+1) to each value.
func LogTransform(X []float64) []float64 {
	out := make([]float64, len(X))
	for i, v := range X {
		out[i] = math.Log1p(v)
	}
	return out
}
