// Package config loads run settings from an optional .env file and the
// process environment.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// Config represents the application configuration
type Config struct {
	DataDir   string
	OutputDir string
	PlotDir   string // empty disables plots

	// Logging
	LogLevel  string
	LogFormat string

	// Training engine; 0 means GOMAXPROCS
	EngineThreads int

	Fraud  FraudConfig
	Movies MoviesConfig
	Sales  SalesConfig
}

// FraudConfig drives the credit card fraud analysis.
type FraudConfig struct {
	Input            string
	TrainFraction    float64
	Seed             int64
	SMOTERatio       float64
	SMOTEK           int
	SMOTEStandardize bool
	Trees            int
	Folds            int // 0 skips cross-validation
	MaxDepth         int
	MaxFeatures      int // 0 uses floor(sqrt(features))
	MinSamplesLeaf   int

	// logistic regression baseline; zero epochs skip it
	BaselineEpochs       int
	BaselineLearningRate float64
	BaselineL2           float64
}

// MoviesConfig drives the movie ratings analysis.
type MoviesConfig struct {
	Input          string
	GenreFallback  string
	Trees          int
	Seed           int64
	MaxDepth       int
	MaxFeatures    int
	MinSamplesLeaf int
	YearEdges      []float64
	YearLabels     []string
	YearMissing    string
}

// SalesConfig drives the store sales forecast.
type SalesConfig struct {
	Input  string
	Store  string
	Family string
	Cutoff time.Time
	P      int
	D      int
	Q      int
	Output string
}

// Load reads envFile when it exists, then builds and validates the
// configuration from the environment. Variables already set in the
// environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, core.IOError("config.load", err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	var e env
	cfg := &Config{
		DataDir:       e.str("DATA_DIR", "."),
		OutputDir:     e.str("OUTPUT_DIR", "."),
		PlotDir:       e.str("PLOT_DIR", ""),
		LogLevel:      e.str("LOG_LEVEL", "info"),
		LogFormat:     e.str("LOG_FORMAT", "console"),
		EngineThreads: e.int("ENGINE_THREADS", 0),
		Fraud: FraudConfig{
			Input:            e.str("FRAUD_INPUT", "creditcard.csv"),
			TrainFraction:    e.float("FRAUD_TRAIN_FRACTION", 0.8),
			Seed:             int64(e.int("FRAUD_SEED", 1234)),
			SMOTERatio:       e.float("FRAUD_SMOTE_RATIO", 0.8),
			SMOTEK:           e.int("FRAUD_SMOTE_K", 5),
			SMOTEStandardize: e.bool("FRAUD_SMOTE_STANDARDIZE", false),
			Trees:            e.int("FRAUD_TREES", 1000),
			Folds:            e.int("FRAUD_FOLDS", 10),
			MaxDepth:         e.int("FRAUD_MAX_DEPTH", 20),
			MaxFeatures:      e.int("FRAUD_MAX_FEATURES", 0),
			MinSamplesLeaf:   e.int("FRAUD_MIN_SAMPLES_LEAF", 1),

			BaselineEpochs:       e.int("FRAUD_BASELINE_EPOCHS", 20),
			BaselineLearningRate: e.float("FRAUD_BASELINE_LEARNING_RATE", 0.01),
			BaselineL2:           e.float("FRAUD_BASELINE_L2", 0),
		},
		Movies: MoviesConfig{
			Input:          e.str("MOVIES_INPUT", "ratings.csv"),
			GenreFallback:  e.str("MOVIES_GENRE_FALLBACK", "drama"),
			Trees:          e.int("MOVIES_TREES", 1000),
			Seed:           int64(e.int("MOVIES_SEED", 1234)),
			MaxDepth:       e.int("MOVIES_MAX_DEPTH", 0),
			MaxFeatures:    e.int("MOVIES_MAX_FEATURES", 0),
			MinSamplesLeaf: e.int("MOVIES_MIN_SAMPLES_LEAF", 1),
			YearEdges:      e.floats("MOVIES_YEAR_EDGES", []float64{1930, 1960, 1990, 2016}),
			YearLabels:     e.strings("MOVIES_YEAR_LABELS", []string{"1930-1960", "1961-1990", "1991-2016"}),
			YearMissing:    e.str("MOVIES_YEAR_MISSING", "unknown"),
		},
		Sales: SalesConfig{
			Input:  e.str("SALES_INPUT", "train.csv"),
			Store:  e.str("SALES_STORE", "1"),
			Family: e.str("SALES_FAMILY", "GROCERY I"),
			Cutoff: e.date("SALES_CUTOFF", time.Date(2017, 7, 1, 0, 0, 0, 0, time.UTC)),
			Output: e.str("SALES_OUTPUT", "store_sales_forecast_results.csv"),
		},
	}
	order := e.ints("SALES_ORDER", []int{1, 1, 1})
	if e.err == nil && len(order) != 3 {
		e.err = core.ConfigError("config", "SALES_ORDER must have three values p,d,q, got %v", order)
	}
	if e.err != nil {
		return nil, e.err
	}
	cfg.Sales.P, cfg.Sales.D, cfg.Sales.Q = order[0], order[1], order[2]

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures all configuration values are usable.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return core.ConfigError("config", "LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	if c.EngineThreads < 0 {
		return core.ConfigError("config", "ENGINE_THREADS cannot be negative")
	}

	f := c.Fraud
	switch {
	case !(f.TrainFraction > 0 && f.TrainFraction < 1):
		return core.ConfigError("config", "FRAUD_TRAIN_FRACTION must be in (0,1), got %v", f.TrainFraction)
	case !(f.SMOTERatio > 0 && f.SMOTERatio <= 1):
		return core.ConfigError("config", "FRAUD_SMOTE_RATIO must be in (0,1], got %v", f.SMOTERatio)
	case f.SMOTEK < 1:
		return core.ConfigError("config", "FRAUD_SMOTE_K must be positive")
	case f.Trees < 1:
		return core.ConfigError("config", "FRAUD_TREES must be positive")
	case f.Folds < 0 || f.Folds == 1:
		return core.ConfigError("config", "FRAUD_FOLDS must be 0 or at least 2, got %d", f.Folds)
	case f.MaxDepth < 0:
		return core.ConfigError("config", "FRAUD_MAX_DEPTH cannot be negative")
	case f.MaxFeatures < 0:
		return core.ConfigError("config", "FRAUD_MAX_FEATURES cannot be negative")
	case f.MinSamplesLeaf < 1:
		return core.ConfigError("config", "FRAUD_MIN_SAMPLES_LEAF must be positive")
	case f.BaselineL2 < 0:
		return core.ConfigError("config", "FRAUD_BASELINE_L2 cannot be negative")
	case f.BaselineEpochs < 0:
		return core.ConfigError("config", "FRAUD_BASELINE_EPOCHS cannot be negative")
	case f.BaselineEpochs > 0 && !(f.BaselineLearningRate > 0):
		return core.ConfigError("config", "FRAUD_BASELINE_LEARNING_RATE must be positive, got %v", f.BaselineLearningRate)
	}

	m := c.Movies
	switch {
	case m.Trees < 1:
		return core.ConfigError("config", "MOVIES_TREES must be positive")
	case m.MaxDepth < 0:
		return core.ConfigError("config", "MOVIES_MAX_DEPTH cannot be negative")
	case m.MaxFeatures < 0:
		return core.ConfigError("config", "MOVIES_MAX_FEATURES cannot be negative")
	case m.MinSamplesLeaf < 1:
		return core.ConfigError("config", "MOVIES_MIN_SAMPLES_LEAF must be positive")
	case len(m.YearEdges) < 2:
		return core.ConfigError("config", "MOVIES_YEAR_EDGES needs at least two edges")
	case len(m.YearLabels) != len(m.YearEdges)-1:
		return core.ConfigError("config", "MOVIES_YEAR_LABELS needs %d labels, got %d", len(m.YearEdges)-1, len(m.YearLabels))
	}
	for i := 1; i < len(m.YearEdges); i++ {
		if m.YearEdges[i] <= m.YearEdges[i-1] {
			return core.ConfigError("config", "MOVIES_YEAR_EDGES must increase, got %v", m.YearEdges)
		}
	}

	s := c.Sales
	if s.P < 0 || s.D < 0 || s.Q < 0 {
		return core.ConfigError("config", "SALES_ORDER cannot be negative, got (%d,%d,%d)", s.P, s.D, s.Q)
	}
	if s.Output == "" {
		return core.ConfigError("config", "SALES_OUTPUT is required")
	}
	return nil
}

// DataPath resolves name against DataDir unless it is absolute.
func (c *Config) DataPath(name string) string { return resolve(c.DataDir, name) }

// OutputPath resolves name against OutputDir unless it is absolute.
func (c *Config) OutputPath(name string) string { return resolve(c.OutputDir, name) }

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
