package model_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/model"
)

func constantSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestARIMAConstantSeriesForecastsConstant(t *testing.T) {
	train, test := constantSeries(40, 5), constantSeries(7, 5)
	for _, order := range []model.Order{{P: 1, D: 1, Q: 1}, {P: 1, D: 0, Q: 0}, {P: 2, D: 2, Q: 1}, {P: 0, D: 0, Q: 0}} {
		m, err := model.FitARIMA(train, order, model.ARIMAOptions{})
		require.NoError(t, err, "order %+v", order)
		fc, err := m.Forecast(len(test))
		require.NoError(t, err)
		assert.Equal(t, 0.0, model.MAE(test, fc), "order %+v", order)
		assert.Equal(t, 0.0, model.RMSE(test, fc), "order %+v", order)
	}
}

func TestARIMARecoversAR1(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	y := make([]float64, 1500)
	for i := 1; i < len(y); i++ {
		y[i] = 0.6*y[i-1] + rnd.NormFloat64()
	}
	for i := range y {
		y[i] += 10
	}
	m, err := model.FitARIMA(y, model.Order{P: 1}, model.ARIMAOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, m.AR[0], 0.06)
	assert.InDelta(t, 10, m.Intercept, 0.2)
	assert.InDelta(t, 1, m.Sigma2, 0.15)
	assert.Less(t, m.AIC, m.AICc)
	assert.Greater(t, m.BIC, m.AIC)

	fc, err := m.Forecast(200)
	require.NoError(t, err)
	assert.InDelta(t, m.Intercept, fc[199], 1e-3, "forecasts revert to the mean")

	lb := m.LjungBox(10)
	require.NotNil(t, lb)
	assert.Greater(t, lb.PValue, 0.001)
}

func TestARIMAIntegratesTrend(t *testing.T) {
	y := make([]float64, 30)
	for i := range y {
		y[i] = 3 + 2*float64(i)
	}
	m, err := model.FitARIMA(y, model.Order{D: 1}, model.ARIMAOptions{})
	require.NoError(t, err)
	fc, err := m.Forecast(2)
	require.NoError(t, err)
	// the differenced series is constant 2 but carries no intercept when d=1
	assert.Equal(t, []float64{y[29], y[29]}, fc)

	m, err = model.FitARIMA(y, model.Order{D: 2}, model.ARIMAOptions{})
	require.NoError(t, err)
	fc, err = m.Forecast(3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{63, 65, 67}, fc, 1e-9)
}

func TestARIMAErrors(t *testing.T) {
	_, err := model.FitARIMA(constantSeries(50, 1), model.Order{P: -1}, model.ARIMAOptions{})
	assert.ErrorIs(t, err, core.ErrConfig)

	_, err = model.FitARIMA(constantSeries(12, 1), model.Order{P: 2, D: 1, Q: 1}, model.ARIMAOptions{})
	assert.ErrorIs(t, err, core.ErrConfig)

	rnd := rand.New(rand.NewSource(5))
	y := make([]float64, 100)
	for i := range y {
		y[i] = rnd.NormFloat64()
	}
	_, err = model.FitARIMA(y, model.Order{P: 2, Q: 2}, model.ARIMAOptions{MaxIterations: 1})
	assert.ErrorIs(t, err, core.ErrConvergence)
}
