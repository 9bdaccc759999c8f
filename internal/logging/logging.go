// Package logging constructs the process-wide zerolog logger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console logger at the requested level. The verbose
// toggle lowers the floor to debug regardless of level.
func New(level string, verbose bool) zerolog.Logger {
	parsed := parseLevel(level)
	if verbose && parsed > zerolog.DebugLevel {
		parsed = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger().Level(parsed)
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
