package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_SetsRequestedLevel(t *testing.T) {
	require.NoError(t, Init("debug"))
	require.True(t, Logger().Core().Enabled(zapcore.DebugLevel))
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("shouting"))
	require.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
	require.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
}
