package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core)).Named("directory")

	log.Info("ListingDirectory.Search: cache hit", "key", "abc", "count", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "ListingDirectory.Search: cache hit", entry.Message)
	assert.Equal(t, "directory", entry.LoggerName)
	assert.Equal(t, "abc", entry.ContextMap()["key"])
	assert.EqualValues(t, 3, entry.ContextMap()["count"])
}

func TestZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":    zapcore.DebugLevel,
		"WARN":     zapcore.WarnLevel,
		"warning":  zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"nonsense": zapcore.InfoLevel,
	}
	for level, want := range cases {
		assert.Equal(t, want, (&LoggerConfig{Level: level}).ZapLevel(), level)
	}
}
