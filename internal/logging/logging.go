package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes a zerolog.Logger based on the requested format and level.
// format can be "text" (human-friendly console) or "json" (structured).
// An empty or unknown level falls back to info.
func Setup(format, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(lvl).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// ForYear returns a child logger tagged with the work unit's year.
func ForYear(log zerolog.Logger, year int) zerolog.Logger {
	return log.With().Int("year", year).Logger()
}

// ForStage returns a child logger tagged with a pipeline stage name.
func ForStage(log zerolog.Logger, stage string) zerolog.Logger {
	return log.With().Str("stage", stage).Logger()
}
