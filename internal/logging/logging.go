// Package logging builds the slog.Logger shared by the CLI, the engine and the
// status server.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options selects the handler, level and destination of a logger.
type Options struct {
	Level  slog.Level
	Format string    // "text" (default) or "json"
	Output io.Writer // defaults to os.Stderr
}

// NewLogger creates a logger writing to stderr.
//
// Stdout is left for command output such as simulation tables.
func NewLogger(level slog.Level, format string) *slog.Logger {
	return New(Options{Level: level, Format: format})
}

// New creates a logger from opts.
func New(opts Options) *slog.Logger {
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, hopts)
	default:
		handler = slog.NewTextHandler(w, hopts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record. Used by tests and by
// library callers that did not supply one.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a level name to slog.Level.
// Unrecognized names map to slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
