package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/lanternmud/lantern/internal/config"
)

func TestNewLogger_ValidConfigs(t *testing.T) {
	tests := []struct {
		level  string
		format string
	}{
		{"debug", "console"},
		{"info", "json"},
		{"warn", "json"},
		{"error", "console"},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger, err := NewLogger(config.LoggingConfig{Level: tt.level, Format: tt.format})
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "shouting", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewVerbose_DebugEnabled(t *testing.T) {
	logger := NewVerbose()
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
