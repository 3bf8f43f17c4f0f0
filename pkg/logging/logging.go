// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	FormatCLI  = "cli"
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w at the given level. Unknown formats
// fall back to the colored CLI handler.
func New(w io.Writer, level, format string) *slog.Logger {
	lev := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lev}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	case FormatText:
		h = slog.NewTextHandler(w, opts)
	default:
		h = NewCLIHandler(w, lev)
	}
	return slog.New(h)
}

// Init sets the default logger to write to stderr.
func Init(level, format string) {
	slog.SetDefault(New(os.Stderr, level, format))
}

// ParseLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
