// Package logging builds the application logger: tinted console output for
// interactive use, JSON for captured batch logs.
package logging

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New creates a logger with the given level ("debug", "info", "warn",
// "error") and format ("console" or "json").
func New(level, format string) *slog.Logger {
	logLevel := parseLevel(level)

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	default:
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
		})
	}

	return slog.New(handler)
}

// ForRun returns a logger carrying the run's identifying fields, so every
// line of a run's processing can be attributed to it.
func ForRun(log *slog.Logger, subject, session, run string) *slog.Logger {
	log = log.With("subject", subject)
	if session != "" {
		log = log.With("session", session)
	}
	if run != "" {
		log = log.With("run", run)
	}
	return log
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
