package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/treasurehunt/internal/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger("test", config.LoggingConfig{Level: "info", Format: format})
		require.NoError(t, err, "format %q should be valid", format)
		assert.NotNil(t, logger)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger("test", config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger("test", config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewLogger_LevelGate(t *testing.T) {
	logger, err := NewLogger("test", config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Nil(t, logger.Check(zapcore.DebugLevel, "debug"), "debug entries are filtered")
	assert.NotNil(t, logger.Check(zapcore.ErrorLevel, "error"))
}
