package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Log is the global logger instance. It falls back to the slog default
// until Setup runs, so packages can log from tests.
var Log = slog.Default()

// Setup initializes the global logger based on the environment
func Setup(env string) {
	SetupWriter(env, os.Stdout)
}

// SetupWriter initializes the global logger writing to w
func SetupWriter(env string, w io.Writer) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if env == "development" {
		opts.Level = slog.LevelDebug
	}

	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

type batchKey struct{}

// WithBatch tags ctx with a bulk-send batch id for FromContext
func WithBatch(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchKey{}, batchID)
}

// FromContext returns the global logger, annotated with the batch id if ctx carries one
func FromContext(ctx context.Context) *slog.Logger {
	if id, ok := ctx.Value(batchKey{}).(string); ok && id != "" {
		return Log.With("batch_id", id)
	}
	return Log
}

// Info logs an info message
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}
