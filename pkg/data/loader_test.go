package data_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
)

var salesSchema = data.Schema{
	Strict: true,
	Fields: []data.Field{
		{Name: "id", Kind: data.Int},
		{Name: "date", Kind: data.Date},
		{Name: "store_nbr", Kind: data.Int},
		{Name: "family", Kind: data.String},
		{Name: "sales", Kind: data.Float, Nullable: true},
	},
}

const salesCSV = `id,date,store_nbr,family,sales
0,2017-06-29,1,GROCERY I,10.5
1,2017-06-30,1,GROCERY I,NA
2,2017-07-01,2,BEVERAGES,3
`

func TestReadCSV(t *testing.T) {
	ds, err := data.ReadCSV(context.Background(), strings.NewReader(salesCSV), salesSchema)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"id", "date", "store_nbr", "family", "sales"}, ds.Names())

	sales, err := ds.Floats("sales")
	require.NoError(t, err)
	assert.Equal(t, 10.5, sales[0])
	assert.True(t, math.IsNaN(sales[1]), "NA must load as NaN for nullable fields")

	dates, err := ds.Times("date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC), dates[2])

	stores, err := ds.Ints("store_nbr")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, stores)

	_, err = ds.Strings("sales")
	assert.ErrorIs(t, err, core.ErrParse, "kind mismatch is a parse error")
}

func TestReadCSVSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"missing column", "id,date,store_nbr,family\n0,2017-01-01,1,A\n"},
		{"unexpected column", "id,date,store_nbr,family,sales,onpromotion\n0,2017-01-01,1,A,1,0\n"},
		{"duplicate column", "id,date,store_nbr,family,sales,sales\n0,2017-01-01,1,A,1,1\n"},
		{"bad number", "id,date,store_nbr,family,sales\n0,2017-01-01,1,A,abc\n"},
		{"bad integer", "id,date,store_nbr,family,sales\n0,2017-01-01,1.5,A,1\n"},
		{"bad date", "id,date,store_nbr,family,sales\n0,01/02/2017,1,A,1\n"},
		{"missing required", "id,date,store_nbr,family,sales\n,2017-01-01,1,A,1\n"},
		{"ragged row", "id,date,store_nbr,family,sales\n0,2017-01-01,1\n"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := data.ReadCSV(context.Background(), strings.NewReader(tc.csv), salesSchema)
			assert.ErrorIs(t, err, core.ErrParse)
		})
	}
}

func TestReadCSVNonStrictIgnoresExtraColumns(t *testing.T) {
	schema := data.Schema{Fields: []data.Field{
		{Name: "You rated", Kind: data.Float},
		{Name: "Genres", Kind: data.String},
	}}
	in := "Const,You rated,Title,Genres\ntt1,8,Heat,\"Crime, Drama\"\ntt2,6,Up,\n"
	ds, err := data.ReadCSV(context.Background(), strings.NewReader(in), schema)
	require.NoError(t, err)

	genres, err := ds.Strings("Genres")
	require.NoError(t, err)
	assert.Equal(t, []string{"Crime, Drama", ""}, genres)
	assert.False(t, ds.Has("Title"))
}

func TestLoadCSVIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))

	loader := data.CSVLoader{Path: path, Schema: salesSchema}
	first, err := loader.Load(context.Background())
	require.NoError(t, err)
	second, err := loader.Load(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"id", "store_nbr"} {
		a, _ := first.Floats(name)
		b, _ := second.Floats(name)
		assert.Equal(t, a, b)
	}
	a, _ := first.Times("date")
	b, _ := second.Times("date")
	assert.Equal(t, a, b)
	sa, _ := first.Strings("family")
	sb, _ := second.Strings("family")
	assert.Equal(t, sa, sb)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := data.LoadCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), salesSchema)
	assert.ErrorIs(t, err, core.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
