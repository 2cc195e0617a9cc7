package report

import (
	"sort"
	"strconv"

	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

func itoa(n int) string { return strconv.Itoa(n) }

// Importance pairs a feature with its mean decrease in impurity.
type Importance struct {
	Feature string
	Value   float64
}

// RankImportances sorts features by importance, highest first. Ties keep
// the feature order.
func RankImportances(features []string, values []float64) []Importance {
	out := make([]Importance, len(features))
	for i, f := range features {
		out[i] = Importance{Feature: f, Value: values[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func ImportanceTable(title string, ranked []Importance) Table {
	t := Table{Title: title, Columns: []string{"rank", "feature", "importance"}}
	for i, imp := range ranked {
		t.Rows = append(t.Rows, []string{itoa(i + 1), imp.Feature, FormatFloat(imp.Value)})
	}
	return t
}

// DescribeTable renders one summary row per named column.
func DescribeTable(title string, names []string, summaries []stats.Summary) Table {
	t := Table{Title: title, Columns: []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}}
	for i, s := range summaries {
		t.Rows = append(t.Rows, []string{
			names[i], itoa(s.Count), FormatFloat(s.Mean), FormatFloat(s.Std),
			FormatFloat(s.Min), FormatFloat(s.Q25), FormatFloat(s.Q50), FormatFloat(s.Q75), FormatFloat(s.Max),
		})
	}
	return t
}
