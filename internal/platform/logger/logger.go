package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger keeps the key/value call style used across the codebase on top of
// a zap SugaredLogger.
type Logger struct {
	sugar  *zap.SugaredLogger
	config *LoggerConfig
}

func NewLogger(cfg *LoggerConfig) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	core := zapcore.NewCore(newEncoder(cfg.Format), openOutput(cfg.OutputFile), zap.NewAtomicLevelAt(cfg.ZapLevel()))
	return &Logger{
		sugar:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
		config: cfg,
	}
}

// NewFromZap wraps an existing zap logger, e.g. one from zaptest/observer.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{sugar: z.Sugar(), config: DefaultConfig()}
}

func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), config: DefaultConfig()}
}

func openOutput(path string) zapcore.WriteSyncer {
	switch path {
	case "", "stdout":
		return zapcore.Lock(os.Stdout)
	case "stderr":
		return zapcore.Lock(os.Stderr)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "logger: cannot create log directory for %s, using stdout: %v\n", path, err)
		return zapcore.Lock(os.Stdout)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: cannot open %s, using stdout: %v\n", path, err)
		return zapcore.Lock(os.Stdout)
	}
	return zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), zapcore.AddSync(f))
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.sugar.Fatalw(msg, keysAndValues...)
}

// Named returns a child logger for one component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{sugar: l.sugar.Named(name), config: l.config}
}

func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), config: l.config}
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
