package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a map of structured logging fields
type Fields map[string]any

// Logger is the structured logger used throughout the tracker
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

// zapLogger implements Logger on top of a zap core
type zapLogger struct {
	base *zap.Logger
}

// NewLogger creates a logger at the given level (debug, info, warn, error)
func NewLogger(level string) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		parseLevel(level),
	)

	return &zapLogger{base: zap.New(core)}
}

// NewDefaultLogger creates a logger at info level
func NewDefaultLogger() Logger {
	return NewLogger("info")
}

// WithFields returns a default logger pre-populated with fields
func WithFields(fields Fields) Logger {
	return NewDefaultLogger().WithFields(fields)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, flatten(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.base.Info(msg, flatten(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, flatten(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Fields) {
	l.base.Error(msg, flatten(fields)...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{base: l.base.With(flatten([]Fields{fields})...)}
}

func flatten(fields []Fields) []zap.Field {
	var out []zap.Field
	for _, f := range fields {
		for k, v := range f {
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
