package analysis

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/dataprep"
	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
	"github.com/cuthie/Data-Science-Portfolio/pkg/model"
	"github.com/cuthie/Data-Science-Portfolio/pkg/pipeline"
	"github.com/cuthie/Data-Science-Portfolio/pkg/report"
	"github.com/cuthie/Data-Science-Portfolio/pkg/split"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

const fraudLabel = "Class"

// FraudFeatures are the predictor columns of creditcard.csv.
var FraudFeatures = func() []string {
	out := []string{"Time"}
	for i := 1; i <= 28; i++ {
		out = append(out, "V"+strconv.Itoa(i))
	}
	return append(out, "Amount")
}()

// FraudSchema is the strict layout of creditcard.csv.
func FraudSchema() data.Schema {
	fields := make([]data.Field, 0, len(FraudFeatures)+1)
	for _, name := range FraudFeatures {
		fields = append(fields, data.Field{Name: name, Kind: data.Float})
	}
	fields = append(fields, data.Field{Name: fraudLabel, Kind: data.Int})
	return data.Schema{Fields: fields, Strict: true}
}

// FraudModel is a random forest fitted on the rebalanced train partition,
// with the cross-validation summary computed on the same rows. Baseline is
// a logistic regression on the same rows, nil when disabled.
type FraudModel struct {
	Forest   *model.RandomForest
	Baseline *model.LogisticRegression
	Features []string
	CV       *model.CVResult
}

// Fraud builds the credit card fraud pipeline: a seeded random split,
// SMOTE on the train partition, a cross-validated random forest and
// binomial metrics on the untouched test partition.
func Fraud(cfg *config.Config, deps Deps) *pipeline.Pipeline[*FraudModel] {
	fc := cfg.Fraud
	newForest := func(int) *model.RandomForest {
		return model.NewRandomForest(
			model.WithNEstimators(fc.Trees),
			model.WithForestMaxDepth(fc.MaxDepth),
			model.WithForestMaxFeatures(fc.MaxFeatures),
			model.WithForestMinSamplesLeaf(fc.MinSamplesLeaf),
			model.WithSeed(fc.Seed),
		)
	}

	fit := func(ctx context.Context, train *data.Dataset) (*FraudModel, error) {
		X, err := train.Matrix(FraudFeatures...)
		if err != nil {
			return nil, err
		}
		y, err := train.Ints(fraudLabel)
		if err != nil {
			return nil, err
		}
		m := &FraudModel{Features: FraudFeatures}
		if fc.Folds > 0 {
			deps.logger().Info("Cross-validating forest", zap.Int("folds", fc.Folds), zap.Int("trees", fc.Trees))
			if m.CV, err = model.CrossValidate(ctx, deps.Engine, newForest, X, y, fc.Folds, fc.Seed); err != nil {
				return nil, fmt.Errorf("fraud.cv: %w", err)
			}
		}
		m.Forest = newForest(-1)
		if err := m.Forest.Fit(ctx, deps.Engine, X, y); err != nil {
			return nil, fmt.Errorf("fraud.fit: %w", err)
		}
		if fc.BaselineEpochs > 0 {
			m.Baseline = model.NewLogisticRegression(fc.BaselineLearningRate, fc.BaselineEpochs, fc.Seed)
			m.Baseline.L2 = fc.BaselineL2
			if err := m.Baseline.Fit(X, y); err != nil {
				return nil, fmt.Errorf("fraud.baseline: %w", err)
			}
			deps.logger().Info("Fitted logistic baseline", zap.Int("epochs", fc.BaselineEpochs), zap.Float64("loss", m.Baseline.Loss))
		}
		return m, nil
	}

	return &pipeline.Pipeline[*FraudModel]{
		Name:     "fraud",
		Loader:   data.CSVLoader{Path: cfg.DataPath(fc.Input), Schema: FraudSchema()},
		Splitter: split.Random{TrainFraction: fc.TrainFraction, Seed: fc.Seed},
		Resamplers: []pipeline.Preprocessor{dataprep.Rebalancer{
			Label:    fraudLabel,
			Features: FraudFeatures,
			SMOTE: dataprep.SMOTE{
				Ratio:       fc.SMOTERatio,
				K:           fc.SMOTEK,
				Seed:        fc.Seed,
				Standardize: fc.SMOTEStandardize,
			},
			Engine: deps.Engine,
		}},
		Fitter:    pipeline.FitterFunc[*FraudModel](fit),
		Evaluator: fraudEvaluator{plotter: deps.Plotter, engine: deps.Engine},
		Logger:    deps.Logger,
	}
}

type fraudEvaluator struct {
	plotter report.Plotter
	engine  *engine.Engine
}

func (e fraudEvaluator) Evaluate(ctx context.Context, run *pipeline.Run[*FraudModel], b *report.Builder) error {
	all, err := run.Dataset.Ints(fraudLabel)
	if err != nil {
		return err
	}
	trainY, err := run.Split.Train.Ints(fraudLabel)
	if err != nil {
		return err
	}
	resampledY, err := run.Train.Ints(fraudLabel)
	if err != nil {
		return err
	}
	if err := b.AddTable(classTable("class distribution", []string{"original", "train", "resampled"}, all, trainY, resampledY)); err != nil {
		return err
	}
	b.Note("SMOTE added %d synthetic rows to the train partition", len(resampledY)-len(trainY))

	amount, err := run.Dataset.Floats("Amount")
	if err != nil {
		return err
	}
	if err := b.AddTable(report.DescribeTable("amount", []string{"Amount"}, []stats.Summary{stats.Describe(amount)})); err != nil {
		return err
	}

	m := run.Model
	if m.CV != nil {
		t := report.Table{Title: fmt.Sprintf("%d-fold cross-validation", len(m.CV.Folds)), Columns: []string{"metric", "mean", "std"}}
		for _, name := range model.BinomialMetricNames {
			t.Rows = append(t.Rows, []string{name, report.FormatFloat(m.CV.Mean[name]), report.FormatFloat(m.CV.Std[name])})
		}
		if err := b.AddTable(t); err != nil {
			return err
		}
		b.AddMetric("cv_auc", m.CV.Mean["auc"])
	}

	if run.Split.Test.Len() > 0 {
		X, err := run.Split.Test.Matrix(m.Features...)
		if err != nil {
			return err
		}
		y, err := run.Split.Test.Ints(fraudLabel)
		if err != nil {
			return err
		}
		score, err := model.PositiveScores(m.Forest, X)
		if err != nil {
			return err
		}
		perf, err := model.EvaluateBinomial(y, score)
		if err != nil {
			return err
		}
		values := perf.Values()
		for _, name := range model.BinomialMetricNames {
			b.AddMetric(name, values[name])
		}
		b.AddMetric("threshold", perf.Threshold)
		cm := perf.Confusion
		err = b.AddTable(report.Table{
			Title:   "confusion matrix at max-F1 threshold",
			Columns: []string{"actual", "predicted_0", "predicted_1"},
			Rows: [][]string{
				{"0", strconv.Itoa(cm.TN), strconv.Itoa(cm.FP)},
				{"1", strconv.Itoa(cm.FN), strconv.Itoa(cm.TP)},
			},
		})
		if err != nil {
			return err
		}
		if m.Baseline != nil {
			if err := e.baseline(ctx, m.Baseline, X, y, perf, b); err != nil {
				return err
			}
		}
	}

	ranked := report.RankImportances(m.Features, m.Forest.FeatureImportances())
	if err := b.AddTable(report.ImportanceTable("feature importance", ranked)); err != nil {
		return err
	}

	path, err := e.plotter.Histogram("fraud_log_amount.png", "Transaction amount", "log(1+amount)", dataprep.LogTransform(amount), 50)
	if err != nil {
		return err
	}
	b.AddArtifact(path)

	top := ranked[:min(len(ranked), 10)]
	labels := make([]string, len(top))
	values := make([]float64, len(top))
	for i, imp := range top {
		labels[i], values[i] = imp.Feature, imp.Value
	}
	path, err = e.plotter.Bars("fraud_importance.png", "Random forest feature importance", "importance", labels, values)
	if err != nil {
		return err
	}
	b.AddArtifact(path)
	return ctx.Err()
}

// baseline scores the logistic model on the test partition and compares it
// with the forest.
func (e fraudEvaluator) baseline(ctx context.Context, lr *model.LogisticRegression, X [][]float64, y []int, forest model.Binomial, b *report.Builder) error {
	proba, err := lr.PredictProbaParallel(ctx, e.engine, X)
	if err != nil {
		return err
	}
	score := make([]float64, len(proba))
	for i, p := range proba {
		score[i] = p[1]
	}
	perf, err := model.EvaluateBinomial(y, score)
	if err != nil {
		return err
	}
	b.AddMetric("baseline_auc", perf.AUC)
	fv, bv := forest.Values(), perf.Values()
	t := report.Table{Title: "forest vs logistic baseline", Columns: []string{"metric", "random_forest", "logistic_regression"}}
	for _, name := range model.BinomialMetricNames {
		t.Rows = append(t.Rows, []string{name, report.FormatFloat(fv[name]), report.FormatFloat(bv[name])})
	}
	return b.AddTable(t)
}
