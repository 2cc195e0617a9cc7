// Package dataprep holds the Dataset preprocessors: filtering, imputation,
// derived and encoded columns, daily reindexing and SMOTE rebalancing.
// Every preprocessor implements Clean(ctx, *data.Dataset) and returns a new
// Dataset.
package dataprep

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
)

// DropIncomplete removes rows with a missing value (NaN, empty string or
// zero date) in any of Columns.
type DropIncomplete struct {
	Columns []string
}

// Clean drops the incomplete rows.
func (d DropIncomplete) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	missing := make([]bool, ds.Len())
	schema := ds.Schema()
	for _, name := range d.Columns {
		f, ok := schema.Field(name)
		if !ok {
			return nil, core.ParseError("dataprep.drop", "column %q not found", name)
		}
		switch f.Kind {
		case data.String:
			v, _ := ds.Strings(name)
			for i, s := range v {
				missing[i] = missing[i] || s == ""
			}
		case data.Date:
			v, _ := ds.Times(name)
			for i, t := range v {
				missing[i] = missing[i] || t.IsZero()
			}
		default:
			v, _ := ds.Floats(name)
			for i, x := range v {
				missing[i] = missing[i] || math.IsNaN(x)
			}
		}
	}
	return ds.Filter(func(i int) bool { return !missing[i] }), nil
}

// FilterEquals keeps the rows whose Column equals Value. Numeric columns
// compare against Value parsed as a number.
type FilterEquals struct {
	Column string
	Value  string
}

// Clean filters the rows.
func (f FilterEquals) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	field, ok := ds.Schema().Field(f.Column)
	if !ok {
		return nil, core.ParseError("dataprep.filter", "column %q not found", f.Column)
	}
	switch field.Kind {
	case data.String:
		v, _ := ds.Strings(f.Column)
		return ds.Filter(func(i int) bool { return v[i] == f.Value }), nil
	case data.Date:
		want, err := time.Parse(data.DefaultDateLayout, f.Value)
		if err != nil {
			return nil, core.ConfigError("dataprep.filter", "bad date %q for %q", f.Value, f.Column)
		}
		v, _ := ds.Times(f.Column)
		return ds.Filter(func(i int) bool { return v[i].Equal(want) }), nil
	default:
		want, err := strconv.ParseFloat(f.Value, 64)
		if err != nil {
			return nil, core.ConfigError("dataprep.filter", "bad number %q for %q", f.Value, f.Column)
		}
		v, _ := ds.Floats(f.Column)
		return ds.Filter(func(i int) bool { return v[i] == want }), nil
	}
}

// Daily sorts ds by the Date column and reindexes it to one row per
// calendar day between the first and last date. Inserted days hold missing
// values except in Fill columns, which are forward filled. Duplicate dates
// are a ParseError.
type Daily struct {
	Date string
	Fill []string
}

// Clean reindexes the rows.
func (d Daily) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sorted, err := ds.SortByTime(d.Date)
	if err != nil {
		return nil, err
	}
	if sorted.Len() == 0 {
		return sorted, nil
	}
	dates, _ := sorted.Times(d.Date)
	for i, t := range dates {
		if t.IsZero() {
			return nil, core.ParseError("dataprep.daily", "row %d has no %q value", i, d.Date)
		}
		if i > 0 && sameDay(t, dates[i-1]) {
			return nil, core.ParseError("dataprep.daily", "duplicate date %s", t.Format(data.DefaultDateLayout))
		}
	}

	// src[r] is the sorted row for day r, or -1 for an inserted day.
	first := truncateDay(dates[0])
	var src []int
	var days []time.Time
	next := 0
	for day := first; !day.After(truncateDay(dates[len(dates)-1])); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
		if next < len(dates) && sameDay(dates[next], day) {
			src = append(src, next)
			next++
		} else {
			src = append(src, -1)
		}
	}
	if len(src) == sorted.Len() {
		return sorted, nil
	}

	schema := sorted.Schema()
	cols := make([]data.Column, len(schema.Fields))
	for c, f := range schema.Fields {
		col := data.Column{Field: f}
		col.Field.Nullable = true
		switch f.Kind {
		case data.Date:
			if f.Name == d.Date {
				col.Times = days
				break
			}
			v, _ := sorted.Times(f.Name)
			col.Times = make([]time.Time, len(src))
			for r, s := range src {
				if s >= 0 {
					col.Times[r] = v[s]
				}
			}
		case data.String:
			v, _ := sorted.Strings(f.Name)
			col.Strings = make([]string, len(src))
			for r, s := range src {
				if s >= 0 {
					col.Strings[r] = v[s]
				}
			}
		default:
			v, _ := sorted.Floats(f.Name)
			col.Floats = make([]float64, len(src))
			for r, s := range src {
				if s >= 0 {
					col.Floats[r] = v[s]
				} else {
					col.Floats[r] = math.NaN()
				}
			}
		}
		cols[c] = col
	}
	out, err := data.New(cols...)
	if err != nil {
		return nil, err
	}
	if len(d.Fill) == 0 {
		return out, nil
	}
	return Impute{Columns: d.Fill, Strategy: ForwardFill}.Clean(ctx, out)
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	return truncateDay(a).Equal(truncateDay(b))
}
