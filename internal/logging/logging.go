package logging

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger builds the process-wide text logger. Level comes from
// LOG_LEVEL (debug|info|warn|error), defaulting to info.
func SetupLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
