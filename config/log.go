package config

import (
	"io"
	"log/slog"
	"strings"
)

// LevelFromString converts a level name into slog.Level. Unknown names result in info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
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

// NewLogger returns a text logger writing into w at the configured level.
func (l Log) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelFromString(l.Level),
	}))
}
