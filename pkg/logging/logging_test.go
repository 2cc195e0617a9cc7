package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
	"github.com/cuthie/Data-Science-Portfolio/pkg/logging"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := logging.New("warn", format)
		require.NoError(t, err, format)
		assert.False(t, log.Core().Enabled(zap.InfoLevel))
		assert.True(t, log.Core().Enabled(zap.WarnLevel))
	}

	_, err := logging.New("loud", "json")
	assert.ErrorIs(t, err, core.ErrConfig)
	_, err = logging.New("info", "xml")
	assert.ErrorIs(t, err, core.ErrConfig)
}
