// Package logger provides a zap-based application logger.
package logger

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum severity a Logger writes.
type Level int8

// Supported levels.
const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// TraceIDFn extracts a trace id from a context; it returns "" when none is present.
type TraceIDFn func(ctx context.Context) string

// Logger writes structured JSON records tagged with the service name and trace id.
type Logger struct {
	sugar   *zap.SugaredLogger
	traceID TraceIDFn
}

// New builds a Logger writing JSON to w.
func New(w io.Writer, level Level, service string, traceID TraceIDFn) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), zapcore.Level(level))
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(zap.String("service", service))
	return &Logger{sugar: z.Sugar(), traceID: traceID}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, keyvals ...any) {
	l.sugar.Debugw(msg, l.withTrace(ctx, keyvals)...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, keyvals ...any) {
	l.sugar.Infow(msg, l.withTrace(ctx, keyvals)...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, keyvals ...any) {
	l.sugar.Warnw(msg, l.withTrace(ctx, keyvals)...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, keyvals ...any) {
	l.sugar.Errorw(msg, l.withTrace(ctx, keyvals)...)
}

// Sync flushes buffered records.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func (l *Logger) withTrace(ctx context.Context, keyvals []any) []any {
	if l.traceID == nil || ctx == nil {
		return keyvals
	}
	if id := l.traceID(ctx); id != "" {
		return append(keyvals, "trace_id", id)
	}
	return keyvals
}
