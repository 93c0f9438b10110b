// Package logging defines the structured Logger contract the executor and
// node handlers depend on, plus a zap-backed production implementation
// and a no-op used by tests and library callers that don't wire logging.
//
// Merged and adapted from the teacher's duplicated
// pkg/embedded/runtime/logging/logging.go and
// pkg/embedded/runtime/interfaces.go Logger/Field/NoOpLogger
// definitions — kept as a single package instead of two copies.
package logging

import "go.uber.org/zap"

// Field is one structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field inline at call sites: logger.Info("...", logging.F("nodeId", id)).
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the structured logging contract used throughout the engine.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// NoOpLogger discards everything; the default when a caller constructs an
// executor without supplying a Logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}

// zapLogger adapts *zap.Logger to the Logger interface.
type zapLogger struct {
	l *zap.Logger
}

// NewZap wraps a *zap.Logger.
func NewZap(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewProduction builds a zap-backed production Logger with sane defaults,
// falling back to NoOpLogger if zap's own construction fails.
func NewProduction() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return NoOpLogger{}
	}
	return &zapLogger{l: l}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

func (z *zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, toZapFields(fields)...) }
func (z *zapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, toZapFields(fields)...) }
func (z *zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, toZapFields(fields)...) }
func (z *zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, toZapFields(fields)...) }
