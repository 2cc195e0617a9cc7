package stats_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/stats"
)

func TestDescribe(t *testing.T) {
	s := stats.Describe([]float64{4, 1, math.NaN(), 3, 2})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Q50, 1e-12)
	assert.Equal(t, 4.0, s.Max)

	assert.True(t, math.IsNaN(stats.Mean(nil)))
	assert.InDelta(t, 1.0, stats.Correlation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
}

func TestDiffInvertsCumSum(t *testing.T) {
	x := []float64{3, -1, 4, 1, -5, 9, 2.5}
	d := stats.Diff(stats.CumSum(x), 1)
	require.Len(t, d, len(x)-1)
	for i := 1; i < len(x); i++ {
		assert.InDelta(t, x[i], d[i-1], 1e-12)
	}

	assert.Equal(t, []float64{2, 2}, stats.Diff([]float64{1, 2, 3, 4}, 2))
	assert.Empty(t, stats.Diff([]float64{1}, 1))
}

func TestLeastSquaresRecoversCoefficients(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	var X [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		a, b := rnd.NormFloat64(), rnd.NormFloat64()
		X = append(X, []float64{1, a, b})
		y = append(y, 1+2*a-3*b+0.01*rnd.NormFloat64())
	}
	fit, err := stats.LeastSquares(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1, fit.Coef[0], 0.01)
	assert.InDelta(t, 2, fit.Coef[1], 0.01)
	assert.InDelta(t, -3, fit.Coef[2], 0.01)
	assert.Equal(t, 197, fit.DF)
	assert.Less(t, fit.StdErr[1], 0.01)
	for i := range y {
		assert.InDelta(t, y[i], fit.Fitted[i]+fit.Resid[i], 1e-9)
	}
}

func TestLeastSquaresSingular(t *testing.T) {
	X := [][]float64{{1, 2, 4}, {1, 3, 6}, {1, 5, 10}, {1, 7, 14}}
	_, err := stats.LeastSquares(X, []float64{1, 2, 3, 4})
	assert.ErrorIs(t, err, stats.ErrSingular)

	_, err = stats.LeastSquares([][]float64{{1, 2}}, []float64{1})
	assert.ErrorIs(t, err, stats.ErrTooFewObs)
}

func TestMacKinnon(t *testing.T) {
	assert.InDelta(t, 0.05, stats.MacKinnonP(-2.86), 0.005)
	assert.Equal(t, 1.0, stats.MacKinnonP(3))
	assert.Equal(t, 0.0, stats.MacKinnonP(-20))

	crit := stats.MacKinnonCrit(1000)
	assert.InDelta(t, -3.4369, crit["1%"], 1e-3)
	assert.InDelta(t, -2.8644, crit["5%"], 1e-3)
	assert.InDelta(t, -2.5683, crit["10%"], 1e-3)
}

func TestADF(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	noise := make([]float64, 500)
	walk := make([]float64, 500)
	level := 0.0
	for i := range noise {
		noise[i] = rnd.NormFloat64()
		level += 1 + rnd.NormFloat64()
		walk[i] = level
	}

	res, err := stats.ADF(noise, stats.DefaultADF)
	require.NoError(t, err)
	assert.True(t, res.Stationary)
	assert.Less(t, res.PValue, 0.01)
	assert.LessOrEqual(t, res.Lags, 18)
	assert.Contains(t, res.CriticalValues, "5%")

	res, err = stats.ADF(walk, stats.DefaultADF)
	require.NoError(t, err)
	assert.False(t, res.Stationary)

	res, err = stats.ADF(stats.Diff(walk, 1), stats.ADFOptions{MaxLag: 2, Fixed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lags)
	assert.True(t, res.Stationary)

	_, err = stats.ADF([]float64{1, 2}, stats.DefaultADF)
	assert.ErrorIs(t, err, stats.ErrTooShort)
}

func TestACFAndPACF(t *testing.T) {
	// AR(1) with phi 0.7
	rnd := rand.New(rand.NewSource(3))
	x := make([]float64, 2000)
	for i := 1; i < len(x); i++ {
		x[i] = 0.7*x[i-1] + rnd.NormFloat64()
	}
	acf := stats.ACF(x, 5)
	require.Len(t, acf, 6)
	assert.Equal(t, 1.0, acf[0])
	assert.InDelta(t, 0.7, acf[1], 0.05)
	assert.InDelta(t, 0.49, acf[2], 0.07)

	pacf := stats.PACF(x, 5)
	require.Len(t, pacf, 6)
	assert.InDelta(t, 0.7, pacf[1], 0.05)
	assert.InDelta(t, 0, pacf[2], 0.06)

	bound := stats.ConfBound(len(x))
	assert.Contains(t, stats.SignificantLags(pacf, bound), 1)
	assert.Nil(t, stats.ACF([]float64{5, 5, 5}, 2))

	lb := stats.LjungBox(x, 10, 0)
	require.NotNil(t, lb)
	assert.Less(t, lb.PValue, 0.01)
}

func TestECDF(t *testing.T) {
	xs, ps := stats.ECDF([]float64{3, math.NaN(), 1, 2, 2})
	assert.Equal(t, []float64{1, 2, 2, 3}, xs)
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1}, ps)
}
