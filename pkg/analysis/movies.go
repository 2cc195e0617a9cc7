package analysis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/dataprep"
	"github.com/cuthie/Data-Science-Portfolio/pkg/model"
	"github.com/cuthie/Data-Science-Portfolio/pkg/pipeline"
	"github.com/cuthie/Data-Science-Portfolio/pkg/report"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

// Derived column names of the movies pipeline.
const (
	colMyRating   = "my_rating"
	colIMDbRating = "imdb_rating"
	colGenre      = "genre"
	colGenreCode  = "first_genre"
	colYears      = "years"
)

// MoviesFormula is the OLS model of my rating.
var MoviesFormula = model.Formula{
	Target:      colMyRating,
	Numeric:     []string{colIMDbRating},
	Categorical: []string{colGenre},
}

// MoviesSchema describes ratings.csv. Other columns of the export are
// ignored.
func MoviesSchema() data.Schema {
	return data.Schema{Fields: []data.Field{
		{Name: "You rated", Kind: data.Float, Nullable: true},
		{Name: "IMDb Rating", Kind: data.Float, Nullable: true},
		{Name: "Genres", Kind: data.String},
		{Name: "Year", Kind: data.Int, Nullable: true},
	}}
}

// MoviesModel holds the rating regression and the random forest that
// classifies my rating from the IMDb rating and the encoded genre.
type MoviesModel struct {
	OLS          *model.LinearRegression
	Forest       *model.RandomForest
	Features     []string
	RatingLevels []string // forest class i is RatingLevels[i]
}

// Movies builds the movie ratings pipeline. The models are fitted and
// evaluated on every complete row.
func Movies(cfg *config.Config, deps Deps) *pipeline.Pipeline[*MoviesModel] {
	mc := cfg.Movies
	features := []string{colIMDbRating, colGenreCode}

	fit := func(ctx context.Context, train *data.Dataset) (*MoviesModel, error) {
		ols, err := model.FitOLS(train, MoviesFormula)
		if err != nil {
			return nil, fmt.Errorf("movies.ols: %w", err)
		}
		mine, err := train.Floats(colMyRating)
		if err != nil {
			return nil, err
		}
		y, levels := dataprep.LabelEncode(ratingLabels(mine))
		X, err := train.Matrix(features...)
		if err != nil {
			return nil, err
		}
		rf := model.NewRandomForest(
			model.WithNEstimators(mc.Trees),
			model.WithForestMaxDepth(mc.MaxDepth),
			model.WithForestMaxFeatures(mc.MaxFeatures),
			model.WithForestMinSamplesLeaf(mc.MinSamplesLeaf),
			model.WithSeed(mc.Seed),
		)
		if err := rf.Fit(ctx, deps.Engine, X, y); err != nil {
			return nil, fmt.Errorf("movies.forest: %w", err)
		}
		return &MoviesModel{OLS: ols, Forest: rf, Features: features, RatingLevels: levels}, nil
	}

	return &pipeline.Pipeline[*MoviesModel]{
		Name:   "movies",
		Loader: data.CSVLoader{Path: cfg.DataPath(mc.Input), Schema: MoviesSchema()},
		Preprocessors: []pipeline.Preprocessor{
			dataprep.Alias{Source: "You rated", Target: colMyRating},
			dataprep.Alias{Source: "IMDb Rating", Target: colIMDbRating},
			dataprep.FirstToken{Source: "Genres", Target: colGenre, Fallback: mc.GenreFallback},
			dataprep.Buckets{Source: "Year", Target: colYears, Edges: mc.YearEdges, Labels: mc.YearLabels, Missing: mc.YearMissing},
			dataprep.DropIncomplete{Columns: []string{colMyRating, colIMDbRating}},
			dataprep.LabelEncoder{Source: colGenre, Target: colGenreCode},
		},
		Fitter:    pipeline.FitterFunc[*MoviesModel](fit),
		Evaluator: moviesEvaluator{plotter: deps.Plotter, yearLabels: mc.YearLabels, yearMissing: mc.YearMissing},
		Logger:    deps.Logger,
	}
}

type moviesEvaluator struct {
	plotter     report.Plotter
	yearLabels  []string
	yearMissing string
}

func (e moviesEvaluator) Evaluate(ctx context.Context, run *pipeline.Run[*MoviesModel], b *report.Builder) error {
	ds := run.Dataset
	mine, err := ds.Floats(colMyRating)
	if err != nil {
		return err
	}
	imdb, err := ds.Floats(colIMDbRating)
	if err != nil {
		return err
	}
	genres, err := ds.Strings(colGenre)
	if err != nil {
		return err
	}
	years, err := ds.Strings(colYears)
	if err != nil {
		return err
	}
	b.AddMetric("movies", float64(ds.Len()))
	b.AddMetric("dropped_incomplete", float64(run.Raw.Len()-ds.Len()))

	err = b.AddTable(report.DescribeTable("ratings", []string{colMyRating, colIMDbRating},
		[]stats.Summary{stats.Describe(mine), stats.Describe(imdb)}))
	if err != nil {
		return err
	}
	b.AddMetric("rating_correlation", stats.Correlation(mine, imdb))

	genreCounts, err := report.ValueCounts(genres)
	if err != nil {
		return err
	}
	if err := b.AddTable(report.CountsTable("movies per genre", colGenre, genreCounts)); err != nil {
		return err
	}
	if err := b.AddTable(e.yearTable(years)); err != nil {
		return err
	}
	means, err := report.GroupMean(genres, mine)
	if err != nil {
		return err
	}
	if err := b.AddTable(report.MeansTable("mean rating by genre", colGenre, "rating", means)); err != nil {
		return err
	}

	ols := run.Model.OLS
	if err := b.AddTable(olsTable(ols)); err != nil {
		return err
	}
	b.AddMetric("r_squared", ols.RSquared).
		AddMetric("adj_r_squared", ols.AdjRSquared).
		AddMetric("f_statistic", ols.FStat).
		AddMetric("f_pvalue", ols.FPValue).
		AddMetric("log_likelihood", ols.LogLik).
		AddMetric("aic", ols.AIC).
		AddMetric("bic", ols.BIC)

	m := run.Model
	X, err := run.Train.Matrix(m.Features...)
	if err != nil {
		return err
	}
	trainMine, err := run.Train.Floats(colMyRating)
	if err != nil {
		return err
	}
	y, _ := dataprep.LabelEncode(ratingLabels(trainMine))
	b.AddMetric("forest_accuracy", model.AccuracyInt(y, m.Forest.Predict(X)))
	ranked := report.RankImportances(m.Features, m.Forest.FeatureImportances())
	if err := b.AddTable(report.ImportanceTable("random forest feature importance", ranked)); err != nil {
		return err
	}

	for _, plot := range []func() (string, error){
		func() (string, error) {
			mx, mp := stats.ECDF(mine)
			ix, ip := stats.ECDF(imdb)
			return e.plotter.Lines("movies_ratings.png", "My rating vs IMDb rating", "rating", "cumulative share",
				report.Series{Name: "my rating", X: mx, Y: mp},
				report.Series{Name: "IMDb rating", X: ix, Y: ip})
		},
		func() (string, error) {
			return e.plotter.Bars("movies_genres.png", "Number of movies per genre", "count", groupKeys(genreCounts), groupCounts(genreCounts))
		},
		func() (string, error) {
			return e.plotter.Bars("movies_mean_rating.png", "Mean rating by genre", "mean rating", groupKeys(means), groupMeans(means))
		},
		func() (string, error) {
			return e.plotter.Scatter("movies_fitted.png", "OLS fitted vs observed", "fitted", "my rating", ols.Fitted, mine)
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

// yearTable counts movies per configured period, then the missing label.
func (e moviesEvaluator) yearTable(years []string) report.Table {
	counts := map[string]int{}
	for _, y := range years {
		counts[y]++
	}
	t := report.Table{Title: "movies per year period", Columns: []string{"period", "count"}}
	for _, label := range e.yearLabels {
		t.Rows = append(t.Rows, []string{label, strconv.Itoa(counts[label])})
	}
	if n := counts[e.yearMissing]; n > 0 {
		t.Rows = append(t.Rows, []string{e.yearMissing, strconv.Itoa(n)})
	}
	return t
}

func olsTable(m *model.LinearRegression) report.Table {
	t := report.Table{
		Title:   "OLS " + m.Formula.String(),
		Columns: []string{"term", "coef", "std_err", "t", "p"},
	}
	for j, term := range m.Terms {
		t.Rows = append(t.Rows, []string{
			term,
			report.FormatFloat(m.Coef[j]),
			report.FormatFloat(m.StdErr[j]),
			report.FormatFloat(m.TValues[j]),
			report.FormatFloat(m.PValues[j]),
		})
	}
	return t
}

// ratingLabels turns ratings into class labels.
func ratingLabels(v []float64) []string {
	out := make([]string, len(v))
	for i, x := range v {
		out[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return out
}

func groupKeys(groups []report.Group) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Key
	}
	return out
}

func groupCounts(groups []report.Group) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = float64(g.Count)
	}
	return out
}

func groupMeans(groups []report.Group) []float64 {
	out := make([]float64, len(groups))
	for i, g := range groups {
		out[i] = g.Mean
	}
	return out
}
