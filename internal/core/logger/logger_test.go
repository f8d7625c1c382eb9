package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reset() {
	mu.Lock()
	globalLogger = nil
	mu.Unlock()
}

// TestInit verifies logger initialization for different environments.
func TestInit(t *testing.T) {
	t.Run("Development", func(t *testing.T) {
		require.NoError(t, Init("development", "debug"))
		assert.True(t, Get().Core().Enabled(zap.DebugLevel))
	})

	t.Run("Production", func(t *testing.T) {
		require.NoError(t, Init("production", "info"))
		assert.False(t, Get().Core().Enabled(zap.DebugLevel))
		assert.True(t, Get().Core().Enabled(zap.InfoLevel))
	})

	t.Run("InvalidLevelKeepsDefault", func(t *testing.T) {
		require.NoError(t, Init("development", "invalid_level"))
		assert.True(t, Get().Core().Enabled(zap.DebugLevel))
	})
}

// TestGet verifies the no-op fallback before Init.
func TestGet(t *testing.T) {
	reset()
	assert.False(t, Get().Core().Enabled(zap.ErrorLevel))

	require.NoError(t, Init("development", "info"))
	assert.True(t, Get().Core().Enabled(zap.InfoLevel))
}

func TestNamed(t *testing.T) {
	reset()
	assert.NotNil(t, Named("engine"))

	require.NoError(t, Init("development", "info"))
	assert.NotNil(t, Named("engine"))
}

// TestSync verifies that Sync does not panic with or without a logger.
func TestSync(t *testing.T) {
	reset()
	Sync()

	require.NoError(t, Init("development", "info"))
	Sync()
}
