package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with the specified level.
// Logs go to stderr: human-readable console format when pretty is set,
// JSON lines otherwise.
func InitLogger(level string, pretty bool) {
	InitLoggerWriter(os.Stderr, level, pretty)
}

// InitLoggerWriter is InitLogger with an explicit destination
func InitLoggerWriter(out io.Writer, level string, pretty bool) {
	w := out
	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	logLevel := parseLogLevel(level)
	zerolog.SetGlobalLevel(logLevel)

	log.Logger = zerolog.New(w).
		With().
		Timestamp().
		Str("service", "ufwlog").
		Logger()

	log.Debug().
		Str("level", logLevel.String()).
		Bool("pretty", pretty).
		Msg("Logger initialized")
}

// parseLogLevel parses a string log level to zerolog.Level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off", "quiet":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
