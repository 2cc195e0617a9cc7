package model_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/model"
)

func TestRegressionMetrics(t *testing.T) {
	truth := []float64{1, 2, 3, 4}
	pred := []float64{1, 3, 3, 2}
	assert.InDelta(t, 0.75, model.MAE(truth, pred), 1e-12)
	assert.InDelta(t, 1.25, model.MSE(truth, pred), 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), model.RMSE(truth, pred), 1e-12)
	assert.InDelta(t, 0.0, model.R2(truth, pred), 1e-12)
}

func TestAUC(t *testing.T) {
	y := []int{0, 0, 1, 1}
	assert.InDelta(t, 1.0, model.AUC(y, []float64{0.1, 0.2, 0.8, 0.9}), 1e-12)
	assert.InDelta(t, 0.75, model.AUC(y, []float64{0.1, 0.4, 0.35, 0.8}), 1e-12)
	assert.InDelta(t, 0.5, model.AUC(y, []float64{0.5, 0.5, 0.5, 0.5}), 1e-12)
	assert.True(t, math.IsNaN(model.AUC([]int{1, 1}, []float64{0.2, 0.3})))
}

func TestEvaluateBinomial(t *testing.T) {
	y := []int{0, 0, 1, 1, 0}
	score := []float64{0.1, 0.4, 0.35, 0.8, 0.2}
	m, err := model.EvaluateBinomial(y, score)
	require.NoError(t, err)

	assert.Equal(t, 5, m.N)
	assert.InDelta(t, 2*m.AUC-1, m.Gini, 1e-12)
	assert.InDelta(t, math.Sqrt(m.MSE), m.RMSE, 1e-12)
	cm := m.Confusion
	assert.Equal(t, 5, cm.TP+cm.FP+cm.TN+cm.FN)
	// predicting 1 for scores >= 0.35 catches both positives with one false alarm
	assert.InDelta(t, 0.35, m.Threshold, 1e-12)
	assert.Equal(t, model.ConfusionMatrix{TN: 2, FP: 1, FN: 0, TP: 2}, cm)
	assert.InDelta(t, 0.8, m.F1, 1e-12)
	assert.InDelta(t, 0.8, m.Accuracy, 1e-12)

	_, err = model.EvaluateBinomial([]int{2}, []float64{0.5})
	assert.Error(t, err)
	_, err = model.EvaluateBinomial(nil, nil)
	assert.Error(t, err)
}

func TestLogLoss(t *testing.T) {
	assert.InDelta(t, -math.Log(0.5), model.LogLoss([]int{1, 0}, []float64{0.5, 0.5}), 1e-12)
	assert.False(t, math.IsInf(model.LogLoss([]int{1}, []float64{0}), 0))
}
