package analysis_test

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cuthie/Data-Science-Portfolio/pkg/analysis"
	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
	"github.com/cuthie/Data-Science-Portfolio/pkg/model"
	"github.com/cuthie/Data-Science-Portfolio/pkg/report"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		DataDir:   dir,
		OutputDir: filepath.Join(dir, "out"),
		PlotDir:   filepath.Join(dir, "plots"),
		Fraud: config.FraudConfig{
			Input:         "creditcard.csv",
			TrainFraction: 0.8,
			Seed:          1234,
			SMOTERatio:    0.8,
			SMOTEK:        5,
			Trees:         15,
			Folds:         3,
			MaxDepth:      6,

			BaselineEpochs:       10,
			BaselineLearningRate: 0.05,
		},
		Movies: config.MoviesConfig{
			Input:         "ratings.csv",
			GenreFallback: "drama",
			Trees:         15,
			Seed:          1234,
			YearEdges:     []float64{1930, 1960, 1990, 2016},
			YearLabels:    []string{"1930-1960", "1961-1990", "1991-2016"},
			YearMissing:   "unknown",
		},
		Sales: config.SalesConfig{
			Input:  "train.csv",
			Store:  "1",
			Family: "GROCERY I",
			Cutoff: time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC),
			P:      1, D: 1, Q: 1,
			Output: "store_sales_forecast_results.csv",
		},
	}
}

func deps(t *testing.T, cfg *config.Config) analysis.Deps {
	t.Helper()
	eng, err := engine.Open(2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return analysis.Deps{Engine: eng, Logger: zaptest.NewLogger(t), Plotter: report.Plotter{Dir: cfg.PlotDir}}
}

func metric(t *testing.T, r *report.Report, name string) float64 {
	t.Helper()
	v, ok := r.Metric(name)
	require.True(t, ok, "metric %s", name)
	return v
}

// fraudCSV writes rows whose label is decided by V1, with a 1:4 class
// imbalance.
func fraudCSV(n int) string {
	rnd := rand.New(rand.NewSource(3))
	var sb strings.Builder
	sb.WriteString(strings.Join(analysis.FraudFeatures, ",") + ",Class\n")
	for i := 0; i < n; i++ {
		class := 0
		if i%5 == 0 {
			class = 1
		}
		row := []string{strconv.Itoa(i)}
		for v := 1; v <= 28; v++ {
			x := rnd.NormFloat64()
			if v == 1 {
				x += 4 * float64(class)
			}
			row = append(row, strconv.FormatFloat(x, 'f', 4, 64))
		}
		row = append(row, strconv.FormatFloat(rnd.Float64()*200, 'f', 2, 64), strconv.Itoa(class))
		sb.WriteString(strings.Join(row, ",") + "\n")
	}
	return sb.String()
}

func TestFraud(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "creditcard.csv", fraudCSV(250))
	cfg := testConfig(dir)

	rep, err := analysis.Fraud(cfg, deps(t, cfg)).Run(context.Background())
	require.NoError(t, err)

	classes, ok := rep.Table("class distribution")
	require.True(t, ok)
	require.Len(t, classes.Rows, 2)
	// columns: class, original, share, train, share, resampled, share
	majority, _ := strconv.Atoi(classes.Rows[0][5])
	minority, _ := strconv.Atoi(classes.Rows[1][5])
	trainMajority, _ := strconv.Atoi(classes.Rows[0][3])
	assert.Equal(t, trainMajority, majority, "SMOTE keeps every majority row")
	assert.Equal(t, int(math.Floor(0.8*float64(majority))), minority)
	assert.Equal(t, "250", sumColumn(classes, 1))

	assert.Greater(t, metric(t, rep, "auc"), 0.9)
	assert.Greater(t, metric(t, rep, "cv_auc"), 0.9)
	assert.Greater(t, metric(t, rep, "baseline_auc"), 0.9)
	vs, ok := rep.Table("forest vs logistic baseline")
	require.True(t, ok)
	assert.Len(t, vs.Rows, len(model.BinomialMetricNames))
	_, ok = rep.Table("3-fold cross-validation")
	assert.True(t, ok)
	imp, ok := rep.Table("feature importance")
	require.True(t, ok)
	assert.Equal(t, "V1", imp.Rows[0][1])
	cm, ok := rep.Table("confusion matrix at max-F1 threshold")
	require.True(t, ok)
	assert.Len(t, cm.Rows, 2)

	for _, a := range rep.Artifacts() {
		assert.FileExists(t, a)
	}
	assert.Len(t, rep.Artifacts(), 2)
}

func TestFraudWithoutCrossValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "creditcard.csv", fraudCSV(120))
	cfg := testConfig(dir)
	cfg.Fraud.Folds = 0
	cfg.Fraud.BaselineEpochs = 0
	cfg.Fraud.MinSamplesLeaf = 2
	cfg.Fraud.MaxFeatures = 3

	rep, err := analysis.Fraud(cfg, deps(t, cfg)).Run(context.Background())
	require.NoError(t, err)
	_, ok := rep.Metric("cv_auc")
	assert.False(t, ok)
	_, ok = rep.Metric("baseline_auc")
	assert.False(t, ok)
	_, ok = rep.Metric("auc")
	assert.True(t, ok)
}

func sumColumn(tbl report.Table, col int) string {
	total := 0
	for _, row := range tbl.Rows {
		n, _ := strconv.Atoi(row[col])
		total += n
	}
	return strconv.Itoa(total)
}

func TestFraudRejectsNonIntegerClass(t *testing.T) {
	dir := t.TempDir()
	body := fraudCSV(20)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	lines[3] = lines[3][:strings.LastIndex(lines[3], ",")] + ",0.5"
	writeFile(t, dir, "creditcard.csv", strings.Join(lines, "\n")+"\n")
	cfg := testConfig(dir)

	_, err := analysis.Fraud(cfg, deps(t, cfg)).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrParse)
}

func moviesCSV() string {
	rnd := rand.New(rand.NewSource(5))
	genres := []string{`"Action, Crime"`, "Comedy", `"Drama, Romance"`, `"Comedy, Drama"`, "Horror"}
	effect := map[string]float64{`"Action, Crime"`: 0.5, "Comedy": -0.5, `"Drama, Romance"`: 1, `"Comedy, Drama"`: -0.5, "Horror": -1.5}
	var sb strings.Builder
	sb.WriteString("Const,You rated,IMDb Rating,Title,Genres,Year\n")
	for i := 0; i < 80; i++ {
		g := genres[i%len(genres)]
		imdb := 5 + 3*rnd.Float64()
		mine := math.Max(1, math.Min(10, math.Round(imdb+effect[g]+0.3*rnd.NormFloat64())))
		year := 1935 + (i*7)%80
		fmt.Fprintf(&sb, "tt%04d,%v,%.1f,Movie %d,%s,%d\n", i, mine, imdb, i, g, year)
	}
	sb.WriteString("tt9000,7,6.8,No genre,,1999\n")
	sb.WriteString("tt9001,6,,No imdb,Comedy,1980\n")
	sb.WriteString("tt9002,8,7.9,Silent,Drama,1925\n")
	return sb.String()
}

func TestMovies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ratings.csv", moviesCSV())
	cfg := testConfig(dir)

	rep, err := analysis.Movies(cfg, deps(t, cfg)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 82.0, metric(t, rep, "movies"))
	assert.Equal(t, 1.0, metric(t, rep, "dropped_incomplete"))

	genres, ok := rep.Table("movies per genre")
	require.True(t, ok)
	keys := make([]string, len(genres.Rows))
	for i, r := range genres.Rows {
		keys[i] = r[0]
	}
	assert.Equal(t, []string{"Action", "Comedy", "Drama", "Horror", "drama"}, keys, "first-appearance order")

	years, ok := rep.Table("movies per year period")
	require.True(t, ok)
	assert.Equal(t, []string{"1930-1960", "1961-1990", "1991-2016", "unknown"},
		[]string{years.Rows[0][0], years.Rows[1][0], years.Rows[2][0], years.Rows[3][0]})

	ols, ok := rep.Table("OLS my_rating ~ imdb_rating + C(genre)")
	require.True(t, ok)
	assert.Equal(t, "Intercept", ols.Rows[0][0])
	assert.Equal(t, "imdb_rating", ols.Rows[1][0])
	assert.Greater(t, metric(t, rep, "r_squared"), 0.5)

	_, ok = rep.Table("mean rating by genre")
	assert.True(t, ok)
	imp, ok := rep.Table("random forest feature importance")
	require.True(t, ok)
	assert.Len(t, imp.Rows, 2)
	assert.Len(t, rep.Artifacts(), 4)
}

func salesCSV() string {
	rnd := rand.New(rand.NewSource(8))
	var sb strings.Builder
	sb.WriteString("id,date,store_nbr,family,sales,onpromotion\n")
	id := 0
	start := time.Date(2017, 5, 1, 0, 0, 0, 0, time.UTC)
	level := 100.0
	for d := 0; d < 71; d++ {
		day := start.AddDate(0, 0, d)
		level += rnd.NormFloat64() * 3
		for _, row := range []struct {
			store  int
			family string
			sales  float64
		}{{1, "GROCERY I", level + 10*math.Sin(float64(d)/3)}, {2, "GROCERY I", 50}, {1, "BEVERAGES", 20}} {
			if row.store == 1 && row.family == "GROCERY I" && day.Format("2006-01-02") == "2017-06-15" {
				continue // a gap to forward fill
			}
			fmt.Fprintf(&sb, "%d,%s,%d,%s,%.3f,%d\n", id, day.Format("2006-01-02"), row.store, row.family, row.sales, d%3)
			id++
		}
	}
	return sb.String()
}

func TestSales(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "train.csv", salesCSV())
	cfg := testConfig(dir)

	rep, err := analysis.Sales(cfg, deps(t, cfg)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 71.0, metric(t, rep, "days"))
	assert.Equal(t, 61.0, metric(t, rep, "train_days"))
	assert.Equal(t, 10.0, metric(t, rep, "test_days"))
	assert.False(t, math.IsNaN(metric(t, rep, "mae")))
	assert.GreaterOrEqual(t, metric(t, rep, "rmse"), metric(t, rep, "mae"))
	_, ok := rep.Metric("adf_first_difference_pvalue")
	assert.True(t, ok)
	_, ok = rep.Table("ARIMA(1,1,1)")
	assert.True(t, ok)

	body, err := os.ReadFile(filepath.Join(dir, "out", "store_sales_forecast_results.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "date,actual,forecast", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2017-07-01,"))
	assert.True(t, strings.HasPrefix(lines[10], "2017-07-10,"))
}

// salesCoreCSV keeps only date, store_nbr, family and sales.
func salesCoreCSV() string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimSpace(salesCSV()), "\n") {
		cells := strings.Split(line, ",")
		sb.WriteString(strings.Join(cells[1:5], ",") + "\n")
	}
	return sb.String()
}

func TestSalesCoreColumnsOnly(t *testing.T) {
	dir := t.TempDir()
	body := salesCoreCSV()
	require.True(t, strings.HasPrefix(body, "date,store_nbr,family,sales\n"))
	writeFile(t, dir, "train.csv", body)
	cfg := testConfig(dir)

	rep, err := analysis.Sales(cfg, deps(t, cfg)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 71.0, metric(t, rep, "days"))
	assert.Equal(t, 10.0, metric(t, rep, "test_days"))
}

func TestSalesUnknownStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "train.csv", salesCSV())
	cfg := testConfig(dir)
	cfg.Sales.Store = "99"

	_, err := analysis.Sales(cfg, deps(t, cfg)).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestRun(t *testing.T) {
	assert.Equal(t, []string{"fraud", "movies", "sales"}, analysis.Names())

	dir := t.TempDir()
	cfg := testConfig(dir)
	_, err := analysis.Run(context.Background(), "weather", cfg, nil)
	assert.ErrorIs(t, err, core.ErrConfig)

	_, err = analysis.Run(context.Background(), "sales", cfg, nil)
	assert.ErrorIs(t, err, core.ErrIO, "missing input file")
}
