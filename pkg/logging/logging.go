// Package logging builds the zap logger shared by every pipeline stage.
package logging

import (
	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// New returns a production (json) or development (console) logger at the
// given level.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, core.ConfigError("logging", "invalid level %q: %v", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	default:
		return nil, core.ConfigError("logging", "unknown format %q", format)
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, core.ConfigError("logging", "build: %v", err)
	}
	return logger, nil
}
