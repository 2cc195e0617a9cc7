package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuthie/Data-Science-Portfolio/pkg/config"
	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.8, cfg.Fraud.TrainFraction)
	assert.Equal(t, int64(1234), cfg.Fraud.Seed)
	assert.Equal(t, 0.8, cfg.Fraud.SMOTERatio)
	assert.Equal(t, 1000, cfg.Fraud.Trees)
	assert.Equal(t, 10, cfg.Fraud.Folds)
	assert.Equal(t, 20, cfg.Fraud.BaselineEpochs)
	assert.Equal(t, 1, cfg.Fraud.MinSamplesLeaf)
	assert.Equal(t, 0, cfg.Movies.MaxFeatures)
	assert.Equal(t, "drama", cfg.Movies.GenreFallback)
	assert.Equal(t, []float64{1930, 1960, 1990, 2016}, cfg.Movies.YearEdges)
	assert.Equal(t, []string{"1930-1960", "1961-1990", "1991-2016"}, cfg.Movies.YearLabels)
	assert.Equal(t, "GROCERY I", cfg.Sales.Family)
	assert.Equal(t, time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC), cfg.Sales.Cutoff)
	assert.Equal(t, []int{1, 1, 1}, []int{cfg.Sales.P, cfg.Sales.D, cfg.Sales.Q})
	assert.Equal(t, "store_sales_forecast_results.csv", cfg.Sales.Output)
}

func TestEnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATA_DIR=/data\nSALES_ORDER=2,1,0\nFRAUD_TREES=50\n"), 0o600))
	t.Setenv("DATA_DIR", "")
	t.Setenv("SALES_ORDER", "")
	t.Setenv("FRAUD_TREES", "75") // the environment wins over the file
	t.Setenv("MOVIES_YEAR_EDGES", "1900, 2000")
	t.Setenv("MOVIES_YEAR_LABELS", "old")

	// godotenv only sets variables that are absent, so unset the blanks
	require.NoError(t, os.Unsetenv("DATA_DIR"))
	require.NoError(t, os.Unsetenv("SALES_ORDER"))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "/data/train.csv", cfg.DataPath(cfg.Sales.Input))
	assert.Equal(t, "/abs/x.csv", cfg.DataPath("/abs/x.csv"))
	assert.Equal(t, 2, cfg.Sales.P)
	assert.Equal(t, 0, cfg.Sales.Q)
	assert.Equal(t, 75, cfg.Fraud.Trees)
	assert.Equal(t, []float64{1900, 2000}, cfg.Movies.YearEdges)
}

func TestFoldsZeroSkipsCrossValidation(t *testing.T) {
	t.Setenv("FRAUD_FOLDS", "0")
	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Zero(t, cfg.Fraud.Folds)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"ENGINE_THREADS", "many"},
		{"ENGINE_THREADS", "-1"},
		{"LOG_FORMAT", "xml"},
		{"FRAUD_TRAIN_FRACTION", "1.5"},
		{"FRAUD_SMOTE_RATIO", "0"},
		{"FRAUD_SMOTE_STANDARDIZE", "maybe"},
		{"FRAUD_FOLDS", "1"},
		{"FRAUD_FOLDS", "-1"},
		{"FRAUD_MIN_SAMPLES_LEAF", "0"},
		{"FRAUD_BASELINE_L2", "-0.1"},
		{"MOVIES_MAX_FEATURES", "-1"},
		{"FRAUD_BASELINE_EPOCHS", "-3"},
		{"FRAUD_BASELINE_LEARNING_RATE", "0"},
		{"MOVIES_YEAR_EDGES", "1990,1960,2016"},
		{"MOVIES_YEAR_LABELS", "a,b"},
		{"SALES_CUTOFF", "07/01/2017"},
		{"SALES_ORDER", "1,1"},
		{"SALES_ORDER", "1,-1,1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.FromEnv()
			assert.ErrorIs(t, err, core.ErrConfig)
		})
	}
}
