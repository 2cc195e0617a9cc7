// Package analysis instantiates the generic pipeline for the fraud, movies
// and sales analyses.
package analysis

import (
	"context"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/engine"
	"github.com/cuthie/Data-Science-Portfolio/pkg/report"
)

// Deps are the run-scoped resources shared by the analyses.
type Deps struct {
	Engine  *engine.Engine
	Logger  *zap.Logger
	Plotter report.Plotter
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

type runner func(ctx context.Context, cfg *config.Config, deps Deps) (*report.Report, error)

var runners = map[string]runner{
	"fraud": func(ctx context.Context, cfg *config.Config, deps Deps) (*report.Report, error) {
		return Fraud(cfg, deps).Run(ctx)
	},
	"movies": func(ctx context.Context, cfg *config.Config, deps Deps) (*report.Report, error) {
		return Movies(cfg, deps).Run(ctx)
	},
	"sales": func(ctx context.Context, cfg *config.Config, deps Deps) (*report.Report, error) {
		return Sales(cfg, deps).Run(ctx)
	},
}

// Names lists the available analyses.
func Names() []string {
	out := make([]string, 0, len(runners))
	for name := range runners {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run opens a training engine, runs the named analysis and closes the
// engine again.
func Run(ctx context.Context, name string, cfg *config.Config, log *zap.Logger) (*report.Report, error) {
	run, ok := runners[name]
	if !ok {
		return nil, core.ConfigError("analysis", "unknown analysis %q, want one of %v", name, Names())
	}
	if log == nil {
		log = zap.NewNop()
	}
	eng, err := engine.Open(cfg.EngineThreads, log)
	if err != nil {
		return nil, err
	}
	defer eng.Close()

	return run(ctx, cfg, Deps{
		Engine:  eng,
		Logger:  log,
		Plotter: report.Plotter{Dir: cfg.PlotDir},
	})
}

// classTable renders the class shares of one or more label vectors side by
// side.
func classTable(title string, names []string, labels ...[]int) report.Table {
	t := report.Table{Title: title, Columns: []string{"class"}}
	for _, n := range names {
		t.Columns = append(t.Columns, n, n+"_share")
	}
	seen := map[int]bool{}
	var classes []int
	for _, y := range labels {
		for _, v := range y {
			if !seen[v] {
				seen[v] = true
				classes = append(classes, v)
			}
		}
	}
	sort.Ints(classes)
	for _, c := range classes {
		row := []string{strconv.Itoa(c)}
		for _, y := range labels {
			n := 0
			for _, v := range y {
				if v == c {
					n++
				}
			}
			share := 0.0
			if len(y) > 0 {
				share = float64(n) / float64(len(y))
			}
			row = append(row, strconv.Itoa(n), report.FormatFloat(share))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
