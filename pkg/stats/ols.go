package stats

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrSingular indicates a rank-deficient or ill-conditioned design matrix.
	ErrSingular = errors.New("stats: design matrix is singular")
	// ErrTooFewObs indicates fewer observations than regressors.
	ErrTooFewObs = errors.New("stats: fewer observations than regressors")
)

// maxCondition bounds the condition number of X'X accepted by LeastSquares.
const maxCondition = 1e14

// LSResult is an ordinary least squares fit.
type LSResult struct {
	Coef   []float64
	StdErr []float64
	Fitted []float64
	Resid  []float64
	SSE    float64
	NObs   int
	DF     int // residual degrees of freedom, NObs - len(Coef)
}

// Sigma2 returns the residual variance SSE/DF.
func (r *LSResult) Sigma2() float64 { return r.SSE / float64(r.DF) }

// TValue returns the t statistic of coefficient j.
func (r *LSResult) TValue(j int) float64 { return r.Coef[j] / r.StdErr[j] }

// LogLik returns the Gaussian log-likelihood at the ML variance SSE/n.
func (r *LSResult) LogLik() float64 {
	n := float64(r.NObs)
	return -n / 2 * (math.Log(2*math.Pi) + math.Log(r.SSE/n) + 1)
}

// AIC returns -2 logL + 2k.
func (r *LSResult) AIC() float64 {
	return -2*r.LogLik() + 2*float64(len(r.Coef))
}

// LeastSquares regresses y on the rows of x. x must already contain an
// intercept column if one is wanted. The normal equations are solved with
// a Cholesky factorisation of X'X.
func LeastSquares(x [][]float64, y []float64) (*LSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, ErrTooFewObs
	}
	k := len(x[0])
	if n <= k {
		return nil, ErrTooFewObs
	}

	flat := make([]float64, 0, n*k)
	for _, row := range x {
		flat = append(flat, row...)
	}
	X := mat.NewDense(n, k, flat)
	Y := mat.NewVecDense(n, append([]float64(nil), y...))

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, ErrSingular
	}
	if c := chol.Cond(); math.IsInf(c, 1) || c > maxCondition {
		return nil, ErrSingular
	}

	xty := mat.NewVecDense(k, nil)
	xty.MulVec(X.T(), Y)

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil {
		return nil, ErrSingular
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, ErrSingular
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)

	res := &LSResult{
		Coef:   make([]float64, k),
		StdErr: make([]float64, k),
		Fitted: make([]float64, n),
		Resid:  make([]float64, n),
		NObs:   n,
		DF:     n - k,
	}
	for i := 0; i < n; i++ {
		res.Fitted[i] = fitted.AtVec(i)
		res.Resid[i] = y[i] - res.Fitted[i]
		res.SSE += res.Resid[i] * res.Resid[i]
	}
	s2 := res.Sigma2()
	for j := 0; j < k; j++ {
		res.Coef[j] = beta.AtVec(j)
		res.StdErr[j] = math.Sqrt(s2 * inv.At(j, j))
	}
	return res, nil
}
