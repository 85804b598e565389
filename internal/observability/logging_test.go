package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestLoggerConfig_Production(t *testing.T) {
	cfg := loggerConfig(config.LoggerConfig{Level: "WARN"})

	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())
	require.NotNil(t, cfg.Sampling)
}

func TestLoggerConfig_Development(t *testing.T) {
	cfg := loggerConfig(config.LoggerConfig{Level: "debug", Development: true})

	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level.Level())
	assert.Nil(t, cfg.Sampling)
}

func TestLoggerConfig_UnknownLevelFallsBackToInfo(t *testing.T) {
	cfg := loggerConfig(config.LoggerConfig{Level: "chatty"})
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "error"}, "helpdesk-test")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
