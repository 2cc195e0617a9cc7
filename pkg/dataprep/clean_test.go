package dataprep_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/dataprep"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return ts
}

func TestDropIncomplete(t *testing.T) {
	ds, err := data.New(
		data.Floats("x", []float64{1, math.NaN(), 3}),
		data.Strings("s", []string{"a", "b", ""}),
	)
	require.NoError(t, err)
	out, err := dataprep.DropIncomplete{Columns: []string{"x"}}.Clean(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())

	out, err = dataprep.DropIncomplete{Columns: []string{"x", "s"}}.Clean(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())

	_, err = dataprep.DropIncomplete{Columns: []string{"nope"}}.Clean(context.Background(), ds)
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestFilterEquals(t *testing.T) {
	ds, err := data.New(
		data.Ints("store_nbr", []int{1, 2, 1}),
		data.Strings("family", []string{"GROCERY I", "GROCERY I", "BEVERAGES"}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	out, err := dataprep.FilterEquals{Column: "store_nbr", Value: "1"}.Clean(ctx, ds)
	require.NoError(t, err)
	out, err = dataprep.FilterEquals{Column: "family", Value: "GROCERY I"}.Clean(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())

	_, err = dataprep.FilterEquals{Column: "store_nbr", Value: "one"}.Clean(ctx, ds)
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestDailyReindexForwardFills(t *testing.T) {
	ds, err := data.New(
		data.Times("date", []time.Time{day(t, "2017-01-04"), day(t, "2017-01-01"), day(t, "2017-01-02")}),
		data.Floats("sales", []float64{4, 1, 2}),
		data.Floats("onpromotion", []float64{0, 0, 0}),
	)
	require.NoError(t, err)

	out, err := dataprep.Daily{Date: "date", Fill: []string{"sales"}}.Clean(context.Background(), ds)
	require.NoError(t, err)
	require.Equal(t, 4, out.Len())

	dates, _ := out.Times("date")
	assert.True(t, dates[2].Equal(day(t, "2017-01-03")))
	sales, _ := out.Floats("sales")
	assert.Equal(t, []float64{1, 2, 2, 4}, sales)
	promo, _ := out.Floats("onpromotion")
	assert.True(t, math.IsNaN(promo[2]))
}

func TestDailyRejectsDuplicates(t *testing.T) {
	ds, err := data.New(
		data.Times("date", []time.Time{day(t, "2017-01-01"), day(t, "2017-01-01")}),
		data.Floats("sales", []float64{1, 2}),
	)
	require.NoError(t, err)
	_, err = dataprep.Daily{Date: "date"}.Clean(context.Background(), ds)
	assert.ErrorIs(t, err, core.ErrParse)
}
