package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const correlationIDKey contextKey = "correlation_id"

// Logger writes one JSON object per line. The correlation id stored in the
// context, if any, is emitted as trace_id.
type Logger struct {
	zl *zap.Logger
}

func NewLogger(out io.Writer, service string) *Logger {
	return NewLoggerWithLevel(out, service, "info")
}

func NewLoggerWithLevel(out io.Writer, service, level string) *Logger {
	if out == nil {
		out = io.Discard
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(out)),
		parseLevel(level),
	)

	zl := zap.New(core)
	if service = strings.TrimSpace(service); service != "" {
		zl = zl.With(zap.String("service", service))
	}
	return &Logger{zl: zl}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationIDKey, strings.TrimSpace(id))
}

func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

func (l *Logger) Debugf(ctx context.Context, format string, v ...any) {
	if l == nil {
		return
	}
	l.log(ctx, zapcore.DebugLevel, fmt.Sprintf(format, v...))
}

func (l *Logger) Printf(ctx context.Context, format string, v ...any) {
	if l == nil {
		return
	}
	l.log(ctx, zapcore.InfoLevel, fmt.Sprintf(format, v...))
}

func (l *Logger) Println(ctx context.Context, v ...any) {
	if l == nil {
		return
	}
	l.log(ctx, zapcore.InfoLevel, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l *Logger) Warnf(ctx context.Context, format string, v ...any) {
	if l == nil {
		return
	}
	l.log(ctx, zapcore.WarnLevel, fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(ctx context.Context, format string, v ...any) {
	if l == nil {
		return
	}
	l.log(ctx, zapcore.ErrorLevel, fmt.Sprintf(format, v...))
}

// Fatalf logs at fatal level and terminates the process.
func (l *Logger) Fatalf(ctx context.Context, format string, v ...any) {
	if l == nil {
		os.Exit(1)
	}
	l.log(ctx, zapcore.FatalLevel, fmt.Sprintf(format, v...))
}

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func (l *Logger) Sync() {
	if l == nil {
		return
	}
	_ = l.zl.Sync()
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string) {
	var fields []zap.Field
	if traceID := CorrelationIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}

	if ce := l.zl.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
