// Package slogger provides shared slog initialization for the monitor
// daemon and any auxiliary binaries.
//
// Call Init at the start of main() with the configured level and format.
// Legacy log.Print* calls are bridged through slog (Go 1.22+ behaviour via
// slog.SetDefault).
//
// Valid levels: "debug", "info", "warn", "error" (default "info").
// Valid formats: "text", "json" (default "text").
package slogger

import (
	"log/slog"
	"os"
	"strings"
)

// level holds the dynamic log level so it can be queried at runtime.
var level *slog.LevelVar

// Init configures the global slog logger on stdout and sets it as the
// default logger.
func Init(levelName, format string) {
	level = &slog.LevelVar{}
	level.Set(parseLevel(levelName))

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// Level returns the current slog.Level. Useful for conditional logic such
// as skipping expensive debug formatting when not in debug mode.
func Level() slog.Level {
	if level == nil {
		return slog.LevelInfo
	}
	return level.Level()
}

// IsDebug returns true when the current log level is debug or lower.
func IsDebug() bool {
	return Level() <= slog.LevelDebug
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
