package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

const defaultZapLevel = zapcore.InfoLevel

func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newCore builds a core writing to ws. Console output is for operators at a
// terminal, json for log shippers.
func newCore(level zapcore.Level, format string, ws zapcore.WriteSyncer) zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	return zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level))
}

// New constructs a logger independent of the global instance.
func New(level, format string) *Logger {
	return &Logger{
		SugaredLogger: zap.New(newCore(toZapLevel(level), format, zapcore.Lock(os.Stdout))).Sugar(),
	}
}

// NewWriter is New with output sent to w. The CLI logs to stderr so that
// stdout stays machine readable.
func NewWriter(level, format string, w io.Writer) *Logger {
	return &Logger{
		SugaredLogger: zap.New(newCore(toZapLevel(level), format, zapcore.AddSync(w))).Sugar(),
	}
}

// Nop returns a logger that discards everything. Used by tests and by
// components constructed without a logger.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Named returns a child logger with a component name attached.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{SugaredLogger: l.SugaredLogger.Named(component)}
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(args ...interface{}) *Logger {
	if l == nil {
		return Nop().With(args...)
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}
