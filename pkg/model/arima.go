package model

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

// Order is an ARIMA(p,d,q) order.
type Order struct {
	P int // AR terms
	D int // differences
	Q int // MA terms
}

// ARIMAOptions bounds the Nelder-Mead search.
type ARIMAOptions struct {
	MaxIterations int     // default 5000
	MaxEvals      int     // default 20000
	Tolerance     float64 // default 1e-10
}

// ARIMA is a fitted ARIMA(p,d,q) model estimated by conditional sum of
// squares. The intercept is only estimated when D is 0.
type ARIMA struct {
	Order     Order
	AR        []float64
	MA        []float64
	Intercept float64
	Sigma2    float64
	LogLik    float64
	AIC       float64
	AICc      float64
	BIC       float64
	NObs      int // observations of the differenced series used in the objective
	Evals     int

	w      []float64 // differenced series
	resid  []float64 // aligned with w, zero before the first conditional residual
	levels []float64 // last value of each differencing level 0..D-1
}

// FitARIMA estimates an ARIMA model on y. A negative order or a series
// shorter than p+q+d+10 is a ConfigError; an optimiser that stops on a
// limit or produces a non-finite objective is a ConvergenceError.
func FitARIMA(y []float64, order Order, opts ARIMAOptions) (*ARIMA, error) {
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, core.ConfigError("model.arima", "order (%d,%d,%d) must not be negative", order.P, order.D, order.Q)
	}
	if len(y) < order.P+order.Q+order.D+10 {
		return nil, core.ConfigError("model.arima", "%d observations are too few for order (%d,%d,%d)",
			len(y), order.P, order.D, order.Q)
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.ParseError("model.arima", "value %d is not finite", i)
		}
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = 5000
	}
	if opts.MaxEvals == 0 {
		opts.MaxEvals = 20000
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = 1e-10
	}

	m := &ARIMA{Order: order}
	w := append([]float64(nil), y...)
	for i := 0; i < order.D; i++ {
		m.levels = append(m.levels, w[len(w)-1])
		w = stats.Diff(w, 1)
	}
	m.w = w

	withMean := order.D == 0
	x0 := m.startValues(withMean)
	objective := func(x []float64) float64 {
		sse, _ := m.css(x, withMean)
		if math.IsNaN(sse) || math.IsInf(sse, 0) {
			return math.Inf(1)
		}
		return sse
	}

	if len(x0) > 0 && !constant(w) {
		problem := optimize.Problem{Func: objective}
		settings := &optimize.Settings{
			MajorIterations: opts.MaxIterations,
			FuncEvaluations: opts.MaxEvals,
			Converger: &optimize.FunctionConverge{
				Absolute:   opts.Tolerance,
				Relative:   opts.Tolerance,
				Iterations: 50 * len(x0),
			},
		}
		res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
		if err != nil {
			return nil, core.ConvergenceError("model.arima", err)
		}
		switch res.Status {
		case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
			return nil, core.ConvergenceError("model.arima", statusError(res.Status))
		}
		if math.IsInf(res.F, 0) || math.IsNaN(res.F) {
			return nil, core.ConvergenceError("model.arima", statusError(res.Status))
		}
		x0 = res.X
		m.Evals = res.Stats.FuncEvaluations
	}

	sse, resid := m.css(x0, withMean)
	m.setParams(x0, withMean)
	m.resid = resid
	m.NObs = len(w) - order.P
	n := float64(m.NObs)
	m.Sigma2 = sse / n
	m.LogLik = -n / 2 * (math.Log(2*math.Pi*m.Sigma2) + 1)
	k := float64(len(x0) + 1) // plus the variance
	m.AIC = -2*m.LogLik + 2*k
	if n-k-1 > 0 {
		m.AICc = m.AIC + 2*k*(k+1)/(n-k-1)
	} else {
		m.AICc = math.Inf(1)
	}
	m.BIC = -2*m.LogLik + k*math.Log(n)
	return m, nil
}

type statusError optimize.Status

func (s statusError) Error() string { return "optimizer stopped: " + optimize.Status(s).String() }

func constant(x []float64) bool {
	for _, v := range x {
		if v != x[0] {
			return false
		}
	}
	return true
}

// startValues uses Yule-Walker for the AR terms, zero MA terms and the
// sample mean for the intercept.
func (m *ARIMA) startValues(withMean bool) []float64 {
	p, q := m.Order.P, m.Order.Q
	x := make([]float64, 0, p+q+1)
	x = append(x, yuleWalker(stats.ACF(m.w, p), p)...)
	x = append(x, make([]float64, q)...)
	if withMean {
		x = append(x, stats.Mean(m.w))
	}
	return x
}

func (m *ARIMA) setParams(x []float64, withMean bool) {
	p, q := m.Order.P, m.Order.Q
	m.AR = append([]float64(nil), x[:p]...)
	m.MA = append([]float64(nil), x[p:p+q]...)
	m.Intercept = 0
	if withMean {
		m.Intercept = x[p+q]
	}
}

// css returns the conditional sum of squares of the residuals from t = p
// onward, and the residuals themselves.
func (m *ARIMA) css(x []float64, withMean bool) (float64, []float64) {
	p, q := m.Order.P, m.Order.Q
	phi, theta := x[:p], x[p:p+q]
	mu := 0.0
	if withMean {
		mu = x[p+q]
	}
	w := m.w
	e := make([]float64, len(w))
	sse := 0.0
	for t := p; t < len(w); t++ {
		v := w[t] - mu
		for i := 0; i < p; i++ {
			v -= phi[i] * (w[t-i-1] - mu)
		}
		for j := 0; j < q && t-j-1 >= p; j++ {
			v -= theta[j] * e[t-j-1]
		}
		e[t] = v
		sse += v * v
	}
	return sse, e
}

// Forecast returns the h-step ahead point forecasts on the original scale.
func (m *ARIMA) Forecast(h int) ([]float64, error) {
	if h < 0 {
		return nil, core.ConfigError("model.arima", "horizon must not be negative, got %d", h)
	}
	p, q := m.Order.P, m.Order.Q
	n := len(m.w)
	ext := append(append(make([]float64, 0, n+h), m.w...), make([]float64, h)...)
	res := append(append(make([]float64, 0, n+h), m.resid...), make([]float64, h)...)
	for t := n; t < n+h; t++ {
		v := m.Intercept
		for i := 0; i < p && t-i-1 >= 0; i++ {
			v += m.AR[i] * (ext[t-i-1] - m.Intercept)
		}
		for j := 0; j < q && t-j-1 >= 0; j++ {
			v += m.MA[j] * res[t-j-1]
		}
		ext[t] = v
	}
	out := append([]float64(nil), ext[n:]...)
	// integrate from the innermost differencing level outwards
	for k := len(m.levels) - 1; k >= 0; k-- {
		last := m.levels[k]
		for i := range out {
			last += out[i]
			out[i] = last
		}
	}
	return out, nil
}

// Residuals returns the conditional residuals of the differenced series.
func (m *ARIMA) Residuals() []float64 {
	return append([]float64(nil), m.resid[m.Order.P:]...)
}

// LjungBox tests the residuals for remaining autocorrelation.
func (m *ARIMA) LjungBox(lags int) *stats.LjungBoxResult {
	return stats.LjungBox(m.Residuals(), lags, m.Order.P+m.Order.Q)
}

// yuleWalker solves the Toeplitz system R phi = r built from acf. It
// returns zeros when acf is too short or the system is singular.
func yuleWalker(acf []float64, order int) []float64 {
	phi := make([]float64, order)
	if order == 0 || len(acf) <= order {
		return phi
	}
	R := mat.NewSymDense(order, nil)
	r := mat.NewVecDense(order, nil)
	for i := 0; i < order; i++ {
		r.SetVec(i, acf[i+1])
		for j := i; j < order; j++ {
			R.SetSym(i, j, acf[j-i])
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(R) {
		return phi
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, r); err != nil {
		return phi
	}
	for i := range phi {
		phi[i] = sol.AtVec(i)
	}
	return phi
}
