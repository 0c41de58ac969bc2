package logging

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap.Logger to the Logger interface
type ZapLogger struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapLogger builds a zap-backed logger. format is "json" or "console".
func NewZapLogger(level Level, format string) (*ZapLogger, error) {
	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))
	cfg.DisableStacktrace = true

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return &ZapLogger{logger: logger, level: cfg.Level}, nil
}

// NewZapLoggerFrom wraps an existing zap logger. The level is fixed by the
// core the logger was built with and SetLevel only filters further.
func NewZapLoggerFrom(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger, level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// toZapFields flattens field maps into zap fields in key order
func toZapFields(fields []Fields) []zap.Field {
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	return out
}

func (z *ZapLogger) enabled(level Level) bool {
	return z.level.Enabled(toZapLevel(level))
}

func (z *ZapLogger) Debug(msg string, fields ...Fields) {
	if z.enabled(DebugLevel) {
		z.logger.Debug(msg, toZapFields(fields)...)
	}
}

func (z *ZapLogger) Info(msg string, fields ...Fields) {
	if z.enabled(InfoLevel) {
		z.logger.Info(msg, toZapFields(fields)...)
	}
}

func (z *ZapLogger) Warn(msg string, fields ...Fields) {
	if z.enabled(WarnLevel) {
		z.logger.Warn(msg, toZapFields(fields)...)
	}
}

func (z *ZapLogger) Error(err error, msg string, fields ...Fields) {
	if z.enabled(ErrorLevel) {
		z.logger.Error(msg, append(toZapFields(fields), zap.Error(err))...)
	}
}

func (z *ZapLogger) Fatal(err error, msg string, fields ...Fields) {
	z.logger.Fatal(msg, append(toZapFields(fields), zap.Error(err))...)
}

func (z *ZapLogger) WithFields(fields Fields) Logger {
	return &ZapLogger{
		logger: z.logger.With(toZapFields([]Fields{fields})...),
		level:  z.level,
	}
}

func (z *ZapLogger) WithContext(ctx context.Context) Logger {
	if fields := FieldsFromContext(ctx); len(fields) > 0 {
		return z.WithFields(fields)
	}
	return z
}

// SetLevel changes the minimum level for this logger and every logger derived from it
func (z *ZapLogger) SetLevel(level Level) {
	z.level.SetLevel(toZapLevel(level))
}

// Sync flushes buffered entries
func (z *ZapLogger) Sync() error {
	return z.logger.Sync()
}
