package access_test

import (
	"testing"

	"github.com/panelpulse/go-access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFormatsMessages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := access.NewZapLogger(zap.New(core))

	logger.Debug("resolving identity %s", "usr-1")
	logger.Info("profile %s updated", "usr-1")
	logger.Warn("write strategy %s unavailable", "procedure:promote_to_admin")
	logger.Error("backend call failed: %v", assert.AnError)

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "resolving identity usr-1", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "profile usr-1 updated", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Contains(t, entries[3].Message, "assert.AnError")
}

func TestZapLoggerNilFallsBack(t *testing.T) {
	logger := access.NewZapLogger(nil)
	require.NotNil(t, logger)
	logger.Info("still usable %d", 1)
}
