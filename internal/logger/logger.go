package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger every component sub-logger derives from.
// format "pretty" writes a console stream for development; anything else
// writes JSON lines. Unknown levels fall back to info.
func Setup(level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	var out io.Writer = os.Stdout
	if strings.EqualFold(format, "pretty") {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log := zerolog.New(out).With().
		Timestamp().
		Str("service", "paperflow").
		Logger()
	if lvl <= zerolog.DebugLevel {
		// Caller lookups cost; only pay for them when debugging.
		log = log.With().Caller().Logger()
	}
	return log
}
