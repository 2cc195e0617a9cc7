package dataprep

import (
	"context"
	"fmt"
	"math"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

// Strategy selects how missing numeric values are filled.
type Strategy int

const (
	Mean Strategy = iota
	Median
	Constant
	// ForwardFill carries the last observed value forward. Leading gaps
	// stay missing.
	ForwardFill
)

func (s Strategy) String() string {
	switch s {
	case Mean:
		return "mean"
	case Median:
		return "median"
	case Constant:
		return "constant"
	case ForwardFill:
		return "ffill"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// Impute fills NaN values in the listed Float or Int columns.
type Impute struct {
	Columns  []string
	Strategy Strategy
	Value    float64 // used by Constant
}

// Fill returns a copy of col with its missing values replaced.
func (m Impute) Fill(col []float64) []float64 {
	out := append([]float64(nil), col...)
	var fill float64
	switch m.Strategy {
	case Mean:
		fill = stats.Mean(col)
	case Median:
		fill = stats.Median(col)
	case Constant:
		fill = m.Value
	case ForwardFill:
		last := math.NaN()
		for i, v := range out {
			if math.IsNaN(v) {
				out[i] = last
			} else {
				last = v
			}
		}
		return out
	}
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = fill
		}
	}
	return out
}

// Clean replaces the listed columns with their filled versions, keeping
// each column's declared kind.
func (m Impute) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if m.Strategy < Mean || m.Strategy > ForwardFill {
		return nil, core.ConfigError("dataprep.impute", "unknown strategy %v", m.Strategy)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	schema := ds.Schema()
	cols := make([]data.Column, 0, len(m.Columns))
	for _, name := range m.Columns {
		v, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}
		f, _ := schema.Field(name)
		cols = append(cols, data.Column{Field: f, Floats: m.Fill(v)})
	}
	return ds.With(cols...)
}
