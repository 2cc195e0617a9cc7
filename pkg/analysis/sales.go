package analysis

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/dataprep"
	"github.com/cuthie/Data-Science-Portfolio/pkg/model"
	"github.com/cuthie/Data-Science-Portfolio/pkg/pipeline"
	"github.com/cuthie/Data-Science-Portfolio/pkg/report"
	"github.com/cuthie/Data-Science-Portfolio/pkg/split"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

const (
	colDate  = "date"
	colSales = "sales"
)

// SalesSchema describes train.csv. Extra columns such as id and
// onpromotion are ignored.
func SalesSchema() data.Schema {
	return data.Schema{Fields: []data.Field{
		{Name: colDate, Kind: data.Date},
		{Name: "store_nbr", Kind: data.Int},
		{Name: "family", Kind: data.String},
		{Name: colSales, Kind: data.Float},
	}}
}

// SalesModel is an ARIMA model of the daily sales before the cutoff.
type SalesModel struct {
	ARIMA *model.ARIMA
}

// Sales builds the store sales forecast pipeline: one store and product
// family, reindexed to daily frequency with forward-filled sales, split at
// the cutoff date and forecast over the test period.
func Sales(cfg *config.Config, deps Deps) *pipeline.Pipeline[*SalesModel] {
	sc := cfg.Sales
	order := model.Order{P: sc.P, D: sc.D, Q: sc.Q}

	nonEmpty := pipeline.PreprocessorFunc(func(_ context.Context, ds *data.Dataset) (*data.Dataset, error) {
		if ds.Len() == 0 {
			return nil, core.ParseError("sales.filter", "no rows for store %s and family %q", sc.Store, sc.Family)
		}
		return ds, nil
	})
	series := pipeline.PreprocessorFunc(func(_ context.Context, ds *data.Dataset) (*data.Dataset, error) {
		return ds.Select(colDate, colSales)
	})

	fit := func(_ context.Context, train *data.Dataset) (*SalesModel, error) {
		if train.Len() == 0 {
			return nil, core.ConfigError("sales.fit", "no observations before %s", sc.Cutoff.Format(data.DefaultDateLayout))
		}
		y, err := train.Floats(colSales)
		if err != nil {
			return nil, err
		}
		m, err := model.FitARIMA(y, order, model.ARIMAOptions{})
		if err != nil {
			return nil, err
		}
		deps.logger().Info("Fitted ARIMA",
			zap.String("order", fmt.Sprintf("(%d,%d,%d)", order.P, order.D, order.Q)),
			zap.Float64("aic", m.AIC), zap.Int("evals", m.Evals))
		return &SalesModel{ARIMA: m}, nil
	}

	return &pipeline.Pipeline[*SalesModel]{
		Name:   "sales",
		Loader: data.CSVLoader{Path: cfg.DataPath(sc.Input), Schema: SalesSchema()},
		Preprocessors: []pipeline.Preprocessor{
			dataprep.FilterEquals{Column: "store_nbr", Value: sc.Store},
			dataprep.FilterEquals{Column: "family", Value: sc.Family},
			nonEmpty,
			series,
			dataprep.Daily{Date: colDate, Fill: []string{colSales}},
		},
		Splitter:  split.ByTime{Column: colDate, Cutoff: sc.Cutoff},
		Fitter:    pipeline.FitterFunc[*SalesModel](fit),
		Evaluator: salesEvaluator{plotter: deps.Plotter, output: cfg.OutputPath(sc.Output), title: fmt.Sprintf("store %s %s", sc.Store, sc.Family)},
		Logger:    deps.Logger,
	}
}

type salesEvaluator struct {
	plotter report.Plotter
	output  string
	title   string
}

func (e salesEvaluator) Evaluate(ctx context.Context, run *pipeline.Run[*SalesModel], b *report.Builder) error {
	dates, err := run.Dataset.Times(colDate)
	if err != nil {
		return err
	}
	sales, err := run.Dataset.Floats(colSales)
	if err != nil {
		return err
	}
	trainDates, err := run.Train.Times(colDate)
	if err != nil {
		return err
	}
	trainSales, err := run.Train.Floats(colSales)
	if err != nil {
		return err
	}
	testDates, err := run.Split.Test.Times(colDate)
	if err != nil {
		return err
	}
	actual, err := run.Split.Test.Floats(colSales)
	if err != nil {
		return err
	}
	b.AddMetric("days", float64(len(sales))).
		AddMetric("train_days", float64(len(trainSales))).
		AddMetric("test_days", float64(len(actual)))
	b.Note("%s: %s to %s", e.title, day(dates[0]), day(dates[len(dates)-1]))

	diff := stats.Diff(sales, 1)
	adfTable := report.Table{Title: "augmented Dickey-Fuller", Columns: []string{"series", "statistic", "p_value", "lags", "nobs", "1%", "5%", "10%", "stationary"}}
	for _, s := range []struct {
		name   string
		values []float64
	}{{"level", sales}, {"first difference", diff}} {
		res, err := stats.ADF(s.values, stats.DefaultADF)
		if err != nil {
			b.Note("ADF on %s skipped: %v", s.name, err)
			continue
		}
		adfTable.Rows = append(adfTable.Rows, []string{
			s.name, report.FormatFloat(res.Statistic), report.FormatFloat(res.PValue),
			strconv.Itoa(res.Lags), strconv.Itoa(res.NObs),
			report.FormatFloat(res.CriticalValues["1%"]), report.FormatFloat(res.CriticalValues["5%"]),
			report.FormatFloat(res.CriticalValues["10%"]), strconv.FormatBool(res.Stationary),
		})
		key := strings.ReplaceAll(s.name, " ", "_")
		b.AddMetric("adf_"+key+"_statistic", res.Statistic).AddMetric("adf_"+key+"_pvalue", res.PValue)
		verdict := "non-stationary"
		if res.Stationary {
			verdict = "stationary"
		}
		b.Note("%s series is %s (p=%s)", s.name, verdict, report.FormatFloat(res.PValue))
	}
	if err := b.AddTable(adfTable); err != nil {
		return err
	}

	var acf, pacf []float64
	if len(diff) > 2 {
		nlags := min(int(10*math.Log10(float64(len(diff)))), len(diff)-1)
		acf, pacf = stats.ACF(diff, nlags), stats.PACF(diff, nlags)
	}
	if len(acf) > 1 && len(pacf) == len(acf) {
		t := report.Table{Title: "ACF/PACF of first difference", Columns: []string{"lag", "acf", "pacf"}}
		lags := make([]float64, len(acf))
		for k := range acf {
			lags[k] = float64(k)
			t.Rows = append(t.Rows, []string{strconv.Itoa(k), report.FormatFloat(acf[k]), report.FormatFloat(pacf[k])})
		}
		if err := b.AddTable(t); err != nil {
			return err
		}
		bound := stats.ConfBound(len(diff))
		b.Note("significant ACF lags %v, PACF lags %v (bound %s)",
			stats.SignificantLags(acf, bound), stats.SignificantLags(pacf, bound), report.FormatFloat(bound))
		path, err := e.plotter.Lines("sales_acf_pacf.png", "ACF and PACF of differenced sales", "lag", "correlation",
			report.Series{Name: "ACF", X: lags, Y: acf},
			report.Series{Name: "PACF", X: lags, Y: pacf})
		if err != nil {
			return err
		}
		b.AddArtifact(path)
	}

	m := run.Model.ARIMA
	if err := b.AddTable(arimaTable(m)); err != nil {
		return err
	}
	b.AddMetric("aic", m.AIC).AddMetric("aicc", m.AICc).AddMetric("bic", m.BIC).
		AddMetric("log_likelihood", m.LogLik).AddMetric("sigma2", m.Sigma2)
	if lb := m.LjungBox(10); lb != nil {
		b.AddMetric("ljung_box_pvalue", lb.PValue)
	}

	if len(actual) == 0 {
		return core.ConfigError("sales.evaluate", "no observations on or after the cutoff")
	}
	forecast, err := m.Forecast(len(actual))
	if err != nil {
		return err
	}
	b.AddMetric("mae", model.MAE(actual, forecast)).AddMetric("rmse", model.RMSE(actual, forecast))

	if err := e.writeResults(testDates, actual, forecast); err != nil {
		return err
	}
	b.AddArtifact(e.output)

	for _, plot := range []func() (string, error){
		func() (string, error) {
			return e.plotter.TimeLines("sales_series.png", e.title+" daily sales", "sales",
				report.Series{Name: "daily sales", X: report.UnixSeconds(dates), Y: sales})
		},
		func() (string, error) {
			return e.plotter.TimeLines("sales_differenced.png", "Differenced series", "change",
				report.Series{Name: "first difference", X: report.UnixSeconds(dates[1:]), Y: diff})
		},
		func() (string, error) {
			return e.plotter.TimeLines("sales_forecast.png", "ARIMA forecast for "+e.title, "sales",
				report.Series{Name: "train", X: report.UnixSeconds(trainDates), Y: trainSales},
				report.Series{Name: "test", X: report.UnixSeconds(testDates), Y: actual},
				report.Series{Name: "forecast", X: report.UnixSeconds(testDates), Y: forecast})
		},
	} {
		path, err := plot()
		if err != nil {
			return err
		}
		b.AddArtifact(path)
	}
	return ctx.Err()
}

func (e salesEvaluator) writeResults(dates []time.Time, actual, forecast []float64) error {
	if err := os.MkdirAll(filepath.Dir(e.output), 0o755); err != nil {
		return core.IOError("sales.results", err)
	}
	f, err := os.Create(e.output)
	if err != nil {
		return core.IOError("sales.results", err)
	}
	days := make([]string, len(dates))
	for i, d := range dates {
		days[i] = day(d)
	}
	if err := report.WriteForecastCSV(f, days, actual, forecast); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return core.IOError("sales.results", err)
	}
	return nil
}

func arimaTable(m *model.ARIMA) report.Table {
	t := report.Table{
		Title:   fmt.Sprintf("ARIMA(%d,%d,%d)", m.Order.P, m.Order.D, m.Order.Q),
		Columns: []string{"param", "value"},
	}
	if m.Order.D == 0 {
		t.Rows = append(t.Rows, []string{"const", report.FormatFloat(m.Intercept)})
	}
	for i, v := range m.AR {
		t.Rows = append(t.Rows, []string{fmt.Sprintf("ar.L%d", i+1), report.FormatFloat(v)})
	}
	for i, v := range m.MA {
		t.Rows = append(t.Rows, []string{fmt.Sprintf("ma.L%d", i+1), report.FormatFloat(v)})
	}
	t.Rows = append(t.Rows, []string{"sigma2", report.FormatFloat(m.Sigma2)})
	return t
}

func day(t time.Time) string { return t.Format(data.DefaultDateLayout) }
