// Package pipeline drives an analysis through its stages:
//
//	Loader -> Preprocessors -> Splitter -> Resamplers (train only) -> Fitter -> Evaluator
//
// Each analysis instantiates Pipeline with its own model type and stage
// implementations. Stages run sequentially; a stage error aborts the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/report"
	"github.com/cuthie/Data-Science-Portfolio/pkg/split"
)

// Loader produces the raw dataset.
type Loader interface {
	Load(ctx context.Context) (*data.Dataset, error)
}

// Preprocessor derives a new dataset from ds.
type Preprocessor interface {
	Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error)
}

// PreprocessorFunc adapts a function to Preprocessor.
type PreprocessorFunc func(ctx context.Context, ds *data.Dataset) (*data.Dataset, error)

func (f PreprocessorFunc) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	return f(ctx, ds)
}

// Splitter partitions the cleaned dataset.
type Splitter interface {
	Split(ds *data.Dataset) (split.Split, error)
}

// Fitter trains a model of type M on the (resampled) train partition.
type Fitter[M any] interface {
	Fit(ctx context.Context, train *data.Dataset) (M, error)
}

type FitterFunc[M any] func(ctx context.Context, train *data.Dataset) (M, error)

func (f FitterFunc[M]) Fit(ctx context.Context, train *data.Dataset) (M, error) { return f(ctx, train) }

// Evaluator writes the outcome of a run into the report builder.
type Evaluator[M any] interface {
	Evaluate(ctx context.Context, run *Run[M], b *report.Builder) error
}

type EvaluatorFunc[M any] func(ctx context.Context, run *Run[M], b *report.Builder) error

func (f EvaluatorFunc[M]) Evaluate(ctx context.Context, run *Run[M], b *report.Builder) error {
	return f(ctx, run, b)
}

// Chain applies preprocessors in order as a single Preprocessor.
type Chain struct {
	steps []Preprocessor
}

func NewChain(steps ...Preprocessor) *Chain {
	return &Chain{steps: steps}
}

func (c *Chain) Clean(ctx context.Context, ds *data.Dataset) (*data.Dataset, error) {
	var err error
	for _, step := range c.steps {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		if ds, err = step.Clean(ctx, ds); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// Run is the state a pipeline hands to its evaluator.
type Run[M any] struct {
	ID      string
	Raw     *data.Dataset // as loaded
	Dataset *data.Dataset // after preprocessing
	Split   split.Split   // Split.Train is before resampling
	Train   *data.Dataset // after resampling, what the model was fitted on
	Model   M
}

// Pipeline wires the stages of one analysis. Splitter defaults to
// split.InSample; Loader, Fitter and Evaluator are required.
type Pipeline[M any] struct {
	Name          string
	Loader        Loader
	Preprocessors []Preprocessor
	Splitter      Splitter
	Resamplers    []Preprocessor
	Fitter        Fitter[M]
	Evaluator     Evaluator[M]
	Logger        *zap.Logger
}

func (p *Pipeline[M]) validate() error {
	switch {
	case p.Name == "":
		return core.ConfigError("pipeline", "name is required")
	case p.Loader == nil:
		return core.ConfigError("pipeline", "%s: loader is required", p.Name)
	case p.Fitter == nil:
		return core.ConfigError("pipeline", "%s: fitter is required", p.Name)
	case p.Evaluator == nil:
		return core.ConfigError("pipeline", "%s: evaluator is required", p.Name)
	}
	return nil
}

// Run executes every stage once and returns the frozen report.
func (p *Pipeline[M]) Run(ctx context.Context) (*report.Report, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	run := &Run[M]{ID: uuid.NewString()}
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("pipeline", p.Name), zap.String("run_id", run.ID))
	log.Info("Starting pipeline")

	fail := func(stage string, err error) (*report.Report, error) {
		log.Error("Stage failed", zap.String("stage", stage), zap.Error(err))
		return nil, fmt.Errorf("%s: %s: %w", p.Name, stage, err)
	}

	raw, err := p.Loader.Load(ctx)
	if err != nil {
		return fail("load", err)
	}
	run.Raw = raw
	log.Info("Loaded dataset", zap.String("stage", "load"), zap.Int("rows", raw.Len()), zap.Strings("columns", raw.Names()))

	ds, err := NewChain(p.Preprocessors...).Clean(ctx, raw)
	if err != nil {
		return fail("preprocess", err)
	}
	run.Dataset = ds
	log.Info("Preprocessed dataset", zap.String("stage", "preprocess"), zap.Int("rows", ds.Len()))

	splitter := p.Splitter
	if splitter == nil {
		splitter = split.InSample{}
	}
	sp, err := splitter.Split(ds)
	if err != nil {
		return fail("split", err)
	}
	run.Split = sp
	log.Info("Split dataset", zap.String("stage", "split"),
		zap.Int("train_rows", sp.Train.Len()), zap.Int("test_rows", sp.Test.Len()))

	train, err := NewChain(p.Resamplers...).Clean(ctx, sp.Train)
	if err != nil {
		return fail("resample", err)
	}
	run.Train = train
	if len(p.Resamplers) > 0 {
		log.Info("Resampled train partition", zap.String("stage", "resample"), zap.Int("rows", train.Len()))
	}

	if err := ctx.Err(); err != nil {
		return fail("fit", err)
	}
	model, err := p.Fitter.Fit(ctx, train)
	if err != nil {
		return fail("fit", err)
	}
	run.Model = model
	log.Info("Fitted model", zap.String("stage", "fit"))

	b := report.NewBuilder(p.Name, run.ID)
	if err := p.Evaluator.Evaluate(ctx, run, b); err != nil {
		return fail("evaluate", err)
	}
	rep := b.Build()
	log.Info("Finished pipeline", zap.String("stage", "evaluate"),
		zap.Int("metrics", len(rep.Metrics())), zap.Int("artifacts", len(rep.Artifacts())))
	return rep, nil
}
