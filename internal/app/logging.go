package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/undotree/internal/config"
)

// ParseLogLevel parses a string into a slog level. Unknown values map to
// info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to w, or os.Stderr when w is nil.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	return newLogger(cfg.Format, ParseLogLevel(cfg.Level), w)
}

func newLogger(format string, level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With(slog.String("app", "undotree"))
}
