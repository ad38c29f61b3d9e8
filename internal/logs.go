// Package internal holds process-level helpers shared by the binaries.
package internal

import (
	"log/slog"
	"os"
	"strings"
)

// LoggerFromString builds the process logger at the configured level.
// Unknown levels fall back to info.
func LoggerFromString(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
