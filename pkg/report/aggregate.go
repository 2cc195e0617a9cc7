package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// Group is one key of a grouped aggregate.
type Group struct {
	Key   string
	Count int
	Mean  float64
}

// GroupMean groups values by keys and returns the count and mean of each
// group, in first-appearance order of the keys.
func GroupMean(keys []string, values []float64) ([]Group, error) {
	if len(keys) != len(values) {
		return nil, core.ConfigError("report.groupmean", "%d keys for %d values", len(keys), len(values))
	}
	if len(keys) == 0 {
		return nil, nil
	}
	// gota reads keys such as "NaN" or "NA" as missing, so group on
	// positional codes and map them back
	codes := make([]string, len(keys))
	index := make(map[string]int)
	var distinct []string
	for i, k := range keys {
		c, ok := index[k]
		if !ok {
			c = len(distinct)
			index[k] = c
			distinct = append(distinct, k)
		}
		codes[i] = "g" + strconv.Itoa(c)
	}
	df := dataframe.New(
		series.New(codes, series.String, "key"),
		series.New(values, series.Float, "value"),
	)
	agg := df.GroupBy("key").Aggregation(
		[]dataframe.AggregationType{dataframe.Aggregation_MEAN, dataframe.Aggregation_COUNT},
		[]string{"value", "value"},
	)
	if agg.Err != nil {
		return nil, core.ParseError("report.groupmean", "aggregate: %v", agg.Err)
	}

	var meanCol, countCol string
	for _, name := range agg.Names() {
		switch {
		case strings.HasSuffix(name, "_MEAN"):
			meanCol = name
		case strings.HasSuffix(name, "_COUNT"):
			countCol = name
		}
	}
	if meanCol == "" || countCol == "" {
		return nil, core.ParseError("report.groupmean", "aggregate columns missing from %v", agg.Names())
	}
	gotCodes := agg.Col("key").Records()
	means := agg.Col(meanCol).Float()
	counts := agg.Col(countCol).Float()

	out := make([]Group, len(distinct))
	found := make([]bool, len(distinct))
	for i, code := range gotCodes {
		c, err := strconv.Atoi(strings.TrimPrefix(code, "g"))
		if err != nil || c < 0 || c >= len(distinct) {
			return nil, core.ParseError("report.groupmean", "unexpected group %q", code)
		}
		out[c] = Group{Key: distinct[c], Count: int(counts[i]), Mean: means[i]}
		found[c] = true
	}
	for c, ok := range found {
		if !ok {
			return nil, core.ParseError("report.groupmean", "group %q lost in aggregation", distinct[c])
		}
	}
	return out, nil
}

// ValueCounts counts each distinct key in first-appearance order.
func ValueCounts(keys []string) ([]Group, error) {
	ones := make([]float64, len(keys))
	for i := range ones {
		ones[i] = 1
	}
	return GroupMean(keys, ones)
}

// CountsTable renders ValueCounts output.
func CountsTable(title, key string, groups []Group) Table {
	t := Table{Title: title, Columns: []string{key, "count"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.Key, itoa(g.Count)})
	}
	return t
}

// MeansTable renders GroupMean output.
func MeansTable(title, key, value string, groups []Group) Table {
	t := Table{Title: title, Columns: []string{key, "count", "mean_" + value}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.Key, itoa(g.Count), FormatFloat(g.Mean)})
	}
	return t
}

// WriteForecastCSV writes the date, actual, forecast result file.
func WriteForecastCSV(w io.Writer, dates []string, actual, forecast []float64) error {
	if len(dates) != len(actual) || len(dates) != len(forecast) {
		return core.ConfigError("report.forecast", "column lengths differ: %d dates, %d actual, %d forecast",
			len(dates), len(actual), len(forecast))
	}
	df := dataframe.New(
		series.New(dates, series.String, "date"),
		series.New(actual, series.Float, "actual"),
		series.New(forecast, series.Float, "forecast"),
	)
	if df.Err != nil {
		return core.ParseError("report.forecast", "frame: %v", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return core.IOError("report.forecast", err)
	}
	return nil
}
