// Package log provides the structured logger used throughout ptcorm.
// It keeps the teacher's Interface shape (Debug/Info/Warning/Error,
// each with an f-variant) but backs it with log/slog and
// github.com/lmittmann/tint instead of a hand-rolled writer, so
// messages carry structured key/value attributes rather than just a
// formatted string.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Interface is implemented by any logger ptcorm components accept.
type Interface interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warning(args ...interface{})
	Warningf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	// With returns a logger that attaches the given key/value pairs to
	// every subsequent message, mirroring slog.Logger.With.
	With(args ...any) Interface
}

// Logger adapts a *slog.Logger to Interface.
type Logger struct {
	s *slog.Logger
}

// New returns a Logger writing colorized, leveled lines to w via tint.
func New(w *os.File, level slog.Level) *Logger {
	h := tint.NewHandler(w, &tint.Options{Level: level})
	return &Logger{s: slog.New(h)}
}

// Default returns a Logger at Info level writing to stderr.
func Default() *Logger {
	return New(os.Stderr, slog.LevelInfo)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string) {
	l.s.Log(ctx, level, msg)
}

func (l *Logger) Debug(args ...interface{})                 { l.log(context.Background(), slog.LevelDebug, fmt.Sprint(args...)) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Info(args ...interface{})                  { l.log(context.Background(), slog.LevelInfo, fmt.Sprint(args...)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(context.Background(), slog.LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warning(args ...interface{})               { l.log(context.Background(), slog.LevelWarn, fmt.Sprint(args...)) }
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.log(context.Background(), slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (l *Logger) Error(args ...interface{})                 { l.log(context.Background(), slog.LevelError, fmt.Sprint(args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(context.Background(), slog.LevelError, fmt.Sprintf(format, args...)) }

func (l *Logger) With(args ...any) Interface {
	return &Logger{s: l.s.With(args...)}
}

// nopLogger discards everything; used as the zero-value default so
// callers never need a nil check before logging.
type nopLogger struct{}

func (nopLogger) Debug(args ...interface{})                  {}
func (nopLogger) Debugf(format string, args ...interface{})  {}
func (nopLogger) Info(args ...interface{})                   {}
func (nopLogger) Infof(format string, args ...interface{})   {}
func (nopLogger) Warning(args ...interface{})                {}
func (nopLogger) Warningf(format string, args ...interface{}) {}
func (nopLogger) Error(args ...interface{})                  {}
func (nopLogger) Errorf(format string, args ...interface{})  {}
func (n nopLogger) With(args ...any) Interface               { return n }

// Nop is a logger that discards every message.
var Nop Interface = nopLogger{}
