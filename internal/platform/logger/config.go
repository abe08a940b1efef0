package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

type LoggerConfig struct {
	Level      string // "debug", "info", "warn", "error"
	Format     string // "json", "console"
	OutputFile string // "stdout", "stderr" or a path
}

func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{Level: "info", Format: "json", OutputFile: "stdout"}
}

func (c *LoggerConfig) ZapLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
