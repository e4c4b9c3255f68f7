package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level, "json", "recordsdb")
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("loud", "json", "recordsdb")
	assert.Error(t, err)
}

func TestNewConsole(t *testing.T) {
	logger, err := New("info", "console", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestNewObserved(t *testing.T) {
	logger, logs := NewObserved()
	logger.Debug("loaded", zap.String("table", "tasks"))

	entries := logs.FilterMessage("loaded").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tasks", entries[0].ContextMap()["table"])
}
