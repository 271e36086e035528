package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("LevelGatesOutput", func(t *testing.T) {
		l, err := New("warn")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("DebugEnablesEverything", func(t *testing.T) {
		l, err := New("debug")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("RootIsNamed", func(t *testing.T) {
		l, err := New("info")
		require.NoError(t, err)
		assert.Equal(t, "venuelink", l.Name())
	})

	t.Run("UnknownLevelRejected", func(t *testing.T) {
		_, err := New("verbose")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verbose")
	})
}
