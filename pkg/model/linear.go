package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/data"
	"github.com/cuthie/Data-Science-Portfolio/pkg/dataprep"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

// Formula describes Target ~ 1 + Numeric... + C(Categorical)...
type Formula struct {
	Target      string
	Numeric     []string
	Categorical []string
}

func (f Formula) String() string {
	s := f.Target + " ~ "
	terms := append([]string(nil), f.Numeric...)
	for _, c := range f.Categorical {
		terms = append(terms, "C("+c+")")
	}
	if len(terms) == 0 {
		return s + "1"
	}
	for i, t := range terms {
		if i > 0 {
			s += " + "
		}
		s += t
	}
	return s
}

// LinearRegression is an ordinary least squares fit with intercept and
// treatment-coded categorical covariates.
type LinearRegression struct {
	Formula Formula
	Terms   []string // coefficient names, "Intercept" first
	Coef    []float64
	StdErr  []float64
	TValues []float64
	PValues []float64

	RSquared    float64
	AdjRSquared float64
	FStat       float64
	FPValue     float64
	LogLik      float64
	AIC         float64
	BIC         float64

	NObs    int
	DFModel int
	DFResid int

	Fitted []float64
	Resid  []float64

	levels map[string][]string // non-reference levels per categorical
}

// FitOLS regresses f.Target on the terms of f over every row of ds. A
// rank-deficient design is a ConvergenceError.
func FitOLS(ds *data.Dataset, f Formula) (*LinearRegression, error) {
	y, err := ds.Floats(f.Target)
	if err != nil {
		return nil, err
	}
	m := &LinearRegression{Formula: f, levels: map[string][]string{}}
	for _, c := range f.Categorical {
		v, err := ds.Strings(c)
		if err != nil {
			return nil, err
		}
		levels, _ := dataprep.TreatmentCode(v)
		m.levels[c] = levels
	}
	X, err := m.Design(ds)
	if err != nil {
		return nil, err
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, core.ParseError("model.ols", "%s is missing in row %d", f.Target, i)
		}
	}

	fit, err := stats.LeastSquares(X, y)
	switch {
	case errors.Is(err, stats.ErrSingular):
		return nil, core.ConvergenceError("model.ols", err)
	case err != nil:
		return nil, core.ConfigError("model.ols", "%v", err)
	}

	k := len(fit.Coef)
	m.Coef, m.StdErr, m.Fitted, m.Resid = fit.Coef, fit.StdErr, fit.Fitted, fit.Resid
	m.NObs, m.DFResid, m.DFModel = fit.NObs, fit.DF, k-1
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(fit.DF)}
	m.TValues = make([]float64, k)
	m.PValues = make([]float64, k)
	for j := range fit.Coef {
		m.TValues[j] = fit.TValue(j)
		m.PValues[j] = 2 * tdist.Survival(math.Abs(m.TValues[j]))
	}

	mean := stats.Mean(y)
	tss := 0.0
	for _, v := range y {
		tss += (v - mean) * (v - mean)
	}
	if tss > 0 {
		m.RSquared = R2(y, fit.Fitted)
		m.AdjRSquared = 1 - (1-m.RSquared)*float64(m.NObs-1)/float64(m.DFResid)
	}
	if m.DFModel > 0 && fit.SSE > 0 {
		m.FStat = ((tss - fit.SSE) / float64(m.DFModel)) / (fit.SSE / float64(m.DFResid))
		fdist := distuv.F{D1: float64(m.DFModel), D2: float64(m.DFResid)}
		m.FPValue = fdist.Survival(m.FStat)
	} else {
		m.FStat, m.FPValue = math.NaN(), math.NaN()
	}
	m.LogLik = fit.LogLik()
	m.AIC = -2*m.LogLik + 2*float64(k)
	m.BIC = -2*m.LogLik + math.Log(float64(m.NObs))*float64(k)
	return m, nil
}

// Design builds the model matrix for ds using the levels seen at fit time.
// Unseen categorical levels code as the reference level.
func (m *LinearRegression) Design(ds *data.Dataset) ([][]float64, error) {
	f := m.Formula
	terms := []string{"Intercept"}
	cols := [][]float64{}
	for _, name := range f.Numeric {
		v, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, x := range v {
			if math.IsNaN(x) {
				return nil, core.ParseError("model.ols", "%s is missing in row %d", name, i)
			}
		}
		terms = append(terms, name)
		cols = append(cols, v)
	}
	for _, name := range f.Categorical {
		v, err := ds.Strings(name)
		if err != nil {
			return nil, err
		}
		for _, level := range m.levels[name] {
			ind := make([]float64, len(v))
			for i, s := range v {
				if s == level {
					ind[i] = 1
				}
			}
			terms = append(terms, fmt.Sprintf("C(%s)[T.%s]", name, level))
			cols = append(cols, ind)
		}
	}
	m.Terms = terms
	X := make([][]float64, ds.Len())
	for i := range X {
		row := make([]float64, len(terms))
		row[0] = 1
		for j, c := range cols {
			row[j+1] = c[i]
		}
		X[i] = row
	}
	return X, nil
}

// Predict returns the fitted linear predictor for the rows of ds.
func (m *LinearRegression) Predict(ds *data.Dataset) ([]float64, error) {
	X, err := m.Design(ds)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		for j, v := range row {
			out[i] += m.Coef[j] * v
		}
	}
	return out, nil
}
