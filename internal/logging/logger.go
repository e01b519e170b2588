package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnv names the environment variable that selects the log level.
const LevelEnv = "WEBGIF_LOG_LEVEL"

// ParseLevel maps debug, info, warn and error to zerolog levels. Anything
// else is info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init initializes the global logger for interactive use: human-readable
// console output on stderr, level from WEBGIF_LOG_LEVEL.
func Init() {
	InitWith(os.Getenv(LevelEnv), zerolog.ConsoleWriter{Out: os.Stderr})
}

// InitJSON initializes the global logger with plain JSON lines on w, which
// is what CloudWatch and the MCP stdio host expect.
func InitJSON(w io.Writer) {
	InitWith(os.Getenv(LevelEnv), w)
}

// InitWith sets the global level and output.
func InitWith(level string, w io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
