// Package logger provides the structured, levelled diagnostic channel for
// sanket, built on log/slog.
//
// Usage errors (firing a pending listener, touching a destroyed dispatcher)
// and callback panics are reported here and never raised back to the caller:
//
//	log := logger.Component("signal")
//	log.Warn("re-entrant fire rejected", "group", key)
package logger

import (
	"log/slog"
	"os"

	"github.com/shashiranjanraj/sanket/config"
)

var L *slog.Logger

func init() {
	var level slog.Level
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: level}

	switch config.AppEnv() {
	case "production", "prod":
		level = slog.LevelInfo
		opts.Level = level
		handler = slog.NewJSONHandler(os.Stdout, opts) // structured JSON for log aggregators
	default:
		level = slog.LevelDebug
		opts.Level = level
		handler = slog.NewTextHandler(os.Stdout, opts) // human-readable for dev
	}

	L = slog.New(handler)
}

// Component returns a logger pre-tagged with the originating package, so
// every diagnostic line is attributable without grepping call sites.
func Component(name string) *slog.Logger {
	return L.With("component", name)
}

// SetOutput replaces the package logger. Embedding applications that already
// carry their own slog handler route sanket diagnostics through it with this.
func SetOutput(l *slog.Logger) {
	if l != nil {
		L = l
	}
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
