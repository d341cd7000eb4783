package bridge

import "go.uber.org/zap"

// Logger is the minimal structured-logging surface this package needs. It
// is kept deliberately small so any of a zap, zerolog, or stdlib slog
// adapter satisfies it without an import of its own into duet's core.
type Logger interface {
	Debug(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one structured logging key-value pair.
type Field struct {
	Key   string
	Value any
}

// F builds a Field, shortening call sites that log several at once.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Error(string, ...Field) {}

// ZapLogger adapts a *zap.Logger to the Logger interface.
type ZapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps l, or a no-op Logger if l is nil.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return ZapLogger{l: l}
}

func (z ZapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, toZap(fields)...) }
func (z ZapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, toZap(fields)...) }

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}
