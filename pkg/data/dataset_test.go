package data_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
)

func day(d int) time.Time { return time.Date(2017, 7, d, 0, 0, 0, 0, time.UTC) }

func sample(t *testing.T) *data.Dataset {
	t.Helper()
	ds, err := data.New(
		data.Times("date", []time.Time{day(3), day(1), day(2)}),
		data.Floats("x", []float64{3, 1, 2}),
		data.Ints("label", []int{1, 0, 0}),
		data.Strings("name", []string{"c", "a", "b"}),
	)
	require.NoError(t, err)
	return ds
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := data.New(data.Floats("a", []float64{1, 2}), data.Floats("b", []float64{1}))
	assert.ErrorIs(t, err, core.ErrConfig)

	_, err = data.New(data.Floats("a", []float64{1}), data.Floats("a", []float64{2}))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestTakeFilterSort(t *testing.T) {
	ds := sample(t)

	taken := ds.Take([]int{2, 2, 0})
	x, err := taken.Floats("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 3}, x)

	filtered := ds.Filter(func(i int) bool { return i != 1 })
	names, _ := filtered.Strings("name")
	assert.Equal(t, []string{"c", "b"}, names)

	sorted, err := ds.SortByTime("date")
	require.NoError(t, err)
	names, _ = sorted.Strings("name")
	assert.Equal(t, []string{"a", "b", "c"}, names)

	_, err = ds.SortByTime("x")
	assert.ErrorIs(t, err, core.ErrParse)

	orig, _ := ds.Strings("name")
	assert.Equal(t, []string{"c", "a", "b"}, orig, "source dataset must be unchanged")
}

func TestWithSelectConcatMatrix(t *testing.T) {
	ds := sample(t)

	wider, err := ds.With(data.Floats("y", []float64{30, 10, 20}), data.Floats("x", []float64{0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "x", "label", "name", "y"}, wider.Names())
	x, _ := wider.Floats("x")
	assert.Equal(t, []float64{0, 0, 0}, x)

	_, err = ds.With(data.Floats("short", []float64{1}))
	assert.ErrorIs(t, err, core.ErrConfig)

	m, err := wider.Matrix("y", "label")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{30, 1}, {10, 0}, {20, 0}}, m)

	_, err = wider.Matrix("name")
	assert.ErrorIs(t, err, core.ErrParse)

	sel, err := ds.Select("x", "label")
	require.NoError(t, err)
	both, err := sel.Concat(sel)
	require.NoError(t, err)
	assert.Equal(t, 6, both.Len())
	labels, err := both.Ints("label")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 0, 1, 0, 0}, labels)

	_, err = sel.Concat(ds)
	assert.ErrorIs(t, err, core.ErrParse)
}
