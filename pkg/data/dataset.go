// Package data provides the typed, columnar Dataset and its CSV loader.
package data

import (
	"math"
	"sort"
	"time"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// Column is a named, typed slice of values used to build a Dataset.
// Exactly one of Floats, Strings or Times is populated, matching Field.Kind.
type Column struct {
	Field   Field
	Floats  []float64
	Strings []string
	Times   []time.Time
}

// Floats builds a Float column.
func Floats(name string, v []float64) Column {
	return Column{Field: Field{Name: name, Kind: Float, Nullable: true}, Floats: v}
}

// Ints builds an Int column.
func Ints(name string, v []int) Column {
	f := make([]float64, len(v))
	for i, x := range v {
		f[i] = float64(x)
	}
	return Column{Field: Field{Name: name, Kind: Int, Nullable: true}, Floats: f}
}

// Strings builds a String column.
func Strings(name string, v []string) Column {
	return Column{Field: Field{Name: name, Kind: String}, Strings: v}
}

// Times builds a Date column.
func Times(name string, v []time.Time) Column {
	return Column{Field: Field{Name: name, Kind: Date, Nullable: true}, Times: v}
}

// Len returns the number of values held by the column.
func (c Column) Len() int {
	switch c.Field.Kind {
	case String:
		return len(c.Strings)
	case Date:
		return len(c.Times)
	default:
		return len(c.Floats)
	}
}

func (c Column) clone() Column {
	out := Column{Field: c.Field}
	switch c.Field.Kind {
	case String:
		out.Strings = append([]string(nil), c.Strings...)
	case Date:
		out.Times = append([]time.Time(nil), c.Times...)
	default:
		out.Floats = append([]float64(nil), c.Floats...)
	}
	return out
}

func (c Column) take(idx []int) Column {
	out := Column{Field: c.Field}
	switch c.Field.Kind {
	case String:
		out.Strings = make([]string, len(idx))
		for i, j := range idx {
			out.Strings[i] = c.Strings[j]
		}
	case Date:
		out.Times = make([]time.Time, len(idx))
		for i, j := range idx {
			out.Times[i] = c.Times[j]
		}
	default:
		out.Floats = make([]float64, len(idx))
		for i, j := range idx {
			out.Floats[i] = c.Floats[j]
		}
	}
	return out
}

// Dataset is an immutable, ordered table of typed columns. Every operation
// that changes rows or columns returns a new Dataset.
type Dataset struct {
	cols  []Column
	index map[string]int
	n     int
}

// New builds a Dataset from columns of equal length. Slices are copied.
func New(cols ...Column) (*Dataset, error) {
	ds := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Field.Name == "" {
			return nil, core.ConfigError("data.new", "column %d has no name", i)
		}
		if _, dup := ds.index[c.Field.Name]; dup {
			return nil, core.ConfigError("data.new", "column %q given twice", c.Field.Name)
		}
		if i == 0 {
			ds.n = c.Len()
		} else if c.Len() != ds.n {
			return nil, core.ConfigError("data.new", "column %q has %d rows, want %d", c.Field.Name, c.Len(), ds.n)
		}
		ds.index[c.Field.Name] = i
		ds.cols = append(ds.cols, c.clone())
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.n }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Field.Name
	}
	return out
}

// Schema returns the strict schema describing the dataset columns.
func (d *Dataset) Schema() Schema {
	s := Schema{Strict: true, Fields: make([]Field, len(d.cols))}
	for i, c := range d.cols {
		s.Fields[i] = c.Field
	}
	return s
}

// Has reports whether the dataset has a column called name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

func (d *Dataset) column(op, name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, core.ParseError(op, "column %q not found", name)
	}
	return &d.cols[i], nil
}

// Floats returns a copy of a Float or Int column.
func (d *Dataset) Floats(name string) ([]float64, error) {
	c, err := d.column("data.floats", name)
	if err != nil {
		return nil, err
	}
	if c.Field.Kind != Float && c.Field.Kind != Int {
		return nil, core.ParseError("data.floats", "column %q is %s, not numeric", name, c.Field.Kind)
	}
	return append([]float64(nil), c.Floats...), nil
}

// Ints returns an Int column as ints. Missing values are an error.
func (d *Dataset) Ints(name string) ([]int, error) {
	c, err := d.column("data.ints", name)
	if err != nil {
		return nil, err
	}
	if c.Field.Kind != Int {
		return nil, core.ParseError("data.ints", "column %q is %s, not int", name, c.Field.Kind)
	}
	out := make([]int, len(c.Floats))
	for i, v := range c.Floats {
		if math.IsNaN(v) {
			return nil, core.ParseError("data.ints", "column %q row %d is missing", name, i)
		}
		out[i] = int(v)
	}
	return out, nil
}

// Strings returns a copy of a String column.
func (d *Dataset) Strings(name string) ([]string, error) {
	c, err := d.column("data.strings", name)
	if err != nil {
		return nil, err
	}
	if c.Field.Kind != String {
		return nil, core.ParseError("data.strings", "column %q is %s, not string", name, c.Field.Kind)
	}
	return append([]string(nil), c.Strings...), nil
}

// Times returns a copy of a Date column.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	c, err := d.column("data.times", name)
	if err != nil {
		return nil, err
	}
	if c.Field.Kind != Date {
		return nil, core.ParseError("data.times", "column %q is %s, not date", name, c.Field.Kind)
	}
	return append([]time.Time(nil), c.Times...), nil
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) (Column, error) {
	c, err := d.column("data.column", name)
	if err != nil {
		return Column{}, err
	}
	return c.clone(), nil
}

// Matrix returns the named numeric columns as row-major feature vectors.
func (d *Dataset) Matrix(names ...string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		c, err := d.column("data.matrix", name)
		if err != nil {
			return nil, err
		}
		if c.Field.Kind != Float && c.Field.Kind != Int {
			return nil, core.ParseError("data.matrix", "column %q is %s, not numeric", name, c.Field.Kind)
		}
		cols[j] = c.Floats
	}
	out := make([][]float64, d.n)
	for i := range out {
		row := make([]float64, len(names))
		for j := range cols {
			row[j] = cols[j][i]
		}
		out[i] = row
	}
	return out, nil
}

// Take returns the rows at idx, in that order. Indices may repeat.
func (d *Dataset) Take(idx []int) *Dataset {
	out := &Dataset{index: d.index, n: len(idx), cols: make([]Column, len(d.cols))}
	for i, c := range d.cols {
		out.cols[i] = c.take(idx)
	}
	return out
}

// Filter keeps the rows for which keep returns true.
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	idx := make([]int, 0, d.n)
	for i := 0; i < d.n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return d.Take(idx)
}

// Select returns a dataset holding only the named columns.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]Column, 0, len(names))
	for _, name := range names {
		c, err := d.column("data.select", name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, *c)
	}
	return New(cols...)
}

// With returns a dataset with cols added, replacing same-named columns.
func (d *Dataset) With(cols ...Column) (*Dataset, error) {
	merged := append([]Column(nil), d.cols...)
	for _, c := range cols {
		if c.Len() != d.n {
			return nil, core.ConfigError("data.with", "column %q has %d rows, want %d", c.Field.Name, c.Len(), d.n)
		}
		if i, ok := d.index[c.Field.Name]; ok {
			merged[i] = c
			continue
		}
		merged = append(merged, c)
	}
	return New(merged...)
}

// Concat appends the rows of other, which must have the same columns.
func (d *Dataset) Concat(other *Dataset) (*Dataset, error) {
	if len(other.cols) != len(d.cols) {
		return nil, core.ParseError("data.concat", "column count %d != %d", len(other.cols), len(d.cols))
	}
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		oc, err := other.column("data.concat", c.Field.Name)
		if err != nil {
			return nil, err
		}
		if oc.Field.Kind != c.Field.Kind {
			return nil, core.ParseError("data.concat", "column %q is %s in one dataset and %s in the other",
				c.Field.Name, c.Field.Kind, oc.Field.Kind)
		}
		out := Column{Field: c.Field}
		out.Floats = append(append([]float64(nil), c.Floats...), oc.Floats...)
		out.Strings = append(append([]string(nil), c.Strings...), oc.Strings...)
		out.Times = append(append([]time.Time(nil), c.Times...), oc.Times...)
		cols[i] = out
	}
	return New(cols...)
}

// SortByTime returns the rows ordered by a Date column. The sort is stable.
func (d *Dataset) SortByTime(name string) (*Dataset, error) {
	c, err := d.column("data.sort", name)
	if err != nil {
		return nil, err
	}
	if c.Field.Kind != Date {
		return nil, core.ParseError("data.sort", "column %q is %s, not date", name, c.Field.Kind)
	}
	idx := make([]int, d.n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return c.Times[idx[a]].Before(c.Times[idx[b]]) })
	return d.Take(idx), nil
}
