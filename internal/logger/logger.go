// Package logger configures the process-wide slog logger from config values.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// L is the configured logger. It starts as slog.Default so code that logs
// before Init still works.
var L = slog.Default()

// Init replaces L according to level ("debug".."error") and format ("json"
// or "text") and makes it the slog default.
func Init(level, format string) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// Unknown levels fall back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
