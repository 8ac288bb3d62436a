package logging

import (
	"io"
	"log/slog"
	"strings"
)

// New builds a slog.Logger writing text output to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	var programLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		programLevel = slog.LevelDebug
	case "warn", "warning":
		programLevel = slog.LevelWarn
	case "error":
		programLevel = slog.LevelError
	default:
		programLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: programLevel})
	return slog.New(handler)
}
