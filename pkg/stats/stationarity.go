package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrTooShort indicates a series too short for the requested test.
var ErrTooShort = errors.New("stats: series too short")

// ADFOptions configures the augmented Dickey-Fuller test. The regression
// always carries a constant and no trend.
type ADFOptions struct {
	// MaxLag bounds the number of lagged differences; a negative value
	// selects ceil(12*(n/100)^(1/4)).
	MaxLag int
	// Fixed uses MaxLag lags directly instead of choosing by AIC.
	Fixed bool
	// Alpha is the significance level for Stationary; zero means 0.05.
	Alpha float64
}

// DefaultADF selects the lag count by AIC up to the default maximum.
var DefaultADF = ADFOptions{MaxLag: -1}

// ADFResult is the outcome of an augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	NObs           int
	CriticalValues map[string]float64
	ICBest         float64
	Stationary     bool
}

// ADF tests x for a unit root. The null hypothesis is non-stationarity; the
// series is called stationary when the MacKinnon p-value is at or below
// Alpha.
func ADF(x []float64, opts ADFOptions) (*ADFResult, error) {
	n := len(x)
	maxLag := opts.MaxLag
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	// one trend term (the constant)
	if limit := n/2 - 2; maxLag > limit {
		maxLag = limit
	}
	if maxLag < 0 || n < 4 {
		return nil, fmt.Errorf("%w: %d values", ErrTooShort, n)
	}
	for _, v := range x {
		if math.IsNaN(v) {
			return nil, errors.New("stats: series contains NaN")
		}
	}
	dx := Diff(x, 1)

	lags := maxLag
	icBest := math.NaN()
	if !opts.Fixed {
		// every candidate is fitted on the sample trimmed for maxLag
		best := math.Inf(1)
		bestLag := -1
		for l := 0; l <= maxLag; l++ {
			design, y := adfDesign(x, dx, l, maxLag)
			fit, err := LeastSquares(design, y)
			if err != nil {
				continue
			}
			if aic := fit.AIC(); aic < best {
				best, bestLag = aic, l
			}
		}
		if bestLag < 0 {
			return nil, ErrSingular
		}
		lags, icBest = bestLag, best
	}

	design, y := adfDesign(x, dx, lags, lags)
	fit, err := LeastSquares(design, y)
	if err != nil {
		return nil, err
	}
	stat := fit.TValue(1)
	alpha := opts.Alpha
	if alpha == 0 {
		alpha = 0.05
	}
	p := MacKinnonP(stat)
	return &ADFResult{
		Statistic:      stat,
		PValue:         p,
		Lags:           lags,
		NObs:           len(y),
		CriticalValues: MacKinnonCrit(len(y)),
		ICBest:         icBest,
		Stationary:     p <= alpha,
	}, nil
}

// adfDesign builds rows [1, x[t], dx[t-1] .. dx[t-lags]] regressed on dx[t]
// for t = trim .. len(dx)-1.
func adfDesign(x, dx []float64, lags, trim int) ([][]float64, []float64) {
	rows := len(dx) - trim
	design := make([][]float64, rows)
	y := make([]float64, rows)
	for r := range rows {
		t := trim + r
		row := make([]float64, 2+lags)
		row[0] = 1
		row[1] = x[t]
		for j := 1; j <= lags; j++ {
			row[1+j] = dx[t-j]
		}
		design[r] = row
		y[r] = dx[t]
	}
	return design, y
}

// MacKinnon (1994) response surface for a constant-only regression with one
// series.
var (
	macKinnonMax     = 2.74
	macKinnonMin     = -18.83
	macKinnonStar    = -1.61
	macKinnonSmallP  = []float64{2.1659, 1.4412, 0.038269}
	macKinnonLargeP  = []float64{1.7339, 0.93202, -0.12745, -0.010368}
	macKinnonCritTau = [3][4]float64{
		{-3.43035, -6.5393, -16.786, -79.433},
		{-2.86154, -2.8903, -4.234, -40.040},
		{-2.56677, -1.5384, -2.809, 0},
	}
)

// MacKinnonP approximates the p-value of an ADF statistic with a constant.
func MacKinnonP(stat float64) float64 {
	switch {
	case stat > macKinnonMax:
		return 1
	case stat < macKinnonMin:
		return 0
	}
	coef := macKinnonLargeP
	if stat <= macKinnonStar {
		coef = macKinnonSmallP
	}
	z, pow := 0.0, 1.0
	for _, c := range coef {
		z += c * pow
		pow *= stat
	}
	return distuv.UnitNormal.CDF(z)
}

// MacKinnonCrit returns the 1%, 5% and 10% critical values for nobs
// observations.
func MacKinnonCrit(nobs int) map[string]float64 {
	inv := 1 / float64(nobs)
	out := make(map[string]float64, 3)
	for i, level := range []string{"1%", "5%", "10%"} {
		tau := macKinnonCritTau[i]
		out[level] = tau[0] + tau[1]*inv + tau[2]*inv*inv + tau[3]*inv*inv*inv
	}
	return out
}
