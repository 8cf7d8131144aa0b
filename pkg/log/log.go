package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	// logger is the global logger instance
	logger atomic.Pointer[slog.Logger]
	// level controls the log level
	level = new(slog.LevelVar)
	// jsonFormat selects the JSON handler over the text handler
	jsonFormat atomic.Bool
	// out is where new handlers write
	out atomic.Pointer[io.Writer]
)

func init() {
	level.Set(slog.LevelInfo)
	var w io.Writer = os.Stderr
	out.Store(&w)
	rebuild()
}

func rebuild() {
	opts := &slog.HandlerOptions{Level: level}
	w := *out.Load()
	var h slog.Handler
	if jsonFormat.Load() {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger.Store(slog.New(h))
}

// SetVerbose enables debug logging
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// SetQuiet disables all logging except errors
func SetQuiet(quiet bool) {
	if quiet {
		level.Set(slog.LevelError)
	}
}

// SetFormat switches between "text" and "json" output.
func SetFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text":
		jsonFormat.Store(false)
	case "json":
		jsonFormat.Store(true)
	default:
		return fmt.Errorf("unknown log format: %s (use text or json)", format)
	}
	rebuild()
	return nil
}

// SetOutput changes the log output destination
func SetOutput(w io.Writer) {
	out.Store(&w)
	rebuild()
}

// Logger returns the current global logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	logger.Load().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	logger.Load().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	logger.Load().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	logger.Load().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return logger.Load().With(args...)
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logger.Load()
}
