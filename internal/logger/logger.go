package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging threshold.
type Level = zapcore.Level

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

var (
	mu    sync.RWMutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	base  = newSugared(zapcore.Lock(os.Stderr))
)

func newSugared(w zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), w, level)
	return zap.New(core).Sugar()
}

// ParseLevel converts a level name to a Level.
// "trace" is accepted as an alias for debug.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q (want trace, debug, info, warn, error, fatal, panic)", s)
	}
}

// SetLevel changes the global threshold. Child loggers created by With follow it.
func SetLevel(l Level) {
	level.SetLevel(l)
}

// GetLevel returns the current global threshold.
func GetLevel() Level {
	return level.Level()
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newSugared(zapcore.AddSync(w))
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Debug(format string, args ...any) { current().Debugf(format, args...) }
func Info(format string, args ...any)  { current().Infof(format, args...) }
func Warn(format string, args ...any)  { current().Warnf(format, args...) }
func Error(format string, args ...any) { current().Errorf(format, args...) }

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

// Logger is a structured child logger carrying fixed key/value pairs.
type Logger struct {
	fields []any
}

// With returns a structured logger that prefixes every entry with keysAndValues.
func With(keysAndValues ...any) *Logger {
	return &Logger{fields: keysAndValues}
}

// With returns a child logger with additional fields.
func (l *Logger) With(keysAndValues ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(keysAndValues))
	fields = append(fields, l.fields...)
	fields = append(fields, keysAndValues...)
	return &Logger{fields: fields}
}

// Enabled reports whether entries at lvl would be written.
func (l *Logger) Enabled(lvl Level) bool {
	return level.Enabled(lvl)
}

func (l *Logger) sugar() *zap.SugaredLogger {
	return current().With(l.fields...)
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	if !l.Enabled(DebugLevel) {
		return
	}
	l.sugar().Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar().Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar().Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar().Errorw(msg, keysAndValues...)
}
