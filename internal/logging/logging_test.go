package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/SEMOSS/procode-training/internal/config"
)

func TestNew_WritesToFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "procode.log")

	logger, level, err := New(config.LogConfig{Level: "warn", Format: "json", File: path})
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, level.Level())

	logger.Info("hidden")
	logger.Warn("shown", zap.String("reactor", "GetAnimals"))
	require.NoError(t, SetLevel(level, "debug"))
	logger.Debug("now visible")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden")
	require.Contains(t, string(data), `"reactor":"GetAnimals"`)
	require.Contains(t, string(data), "now visible")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()
	_, _, err := New(config.LogConfig{Level: "chatty"})
	require.Error(t, err)
}
