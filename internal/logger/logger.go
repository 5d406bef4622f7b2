package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Logger is the global logger instance
	Logger zerolog.Logger
)

// Component names used across qalttab
const (
	ComponentListener   = "listener"
	ComponentWatcher    = "alt-watcher"
	ComponentQtile      = "qtile"
	ComponentAggregator = "aggregator"
	ComponentConfig     = "config"
	ComponentInspector  = "inspector"
	ComponentAlert      = "alert"
)

func init() {
	// Stderr keeps stdout free for CLI output such as `qalttab windows --format json`
	Logger = newLogger(os.Stderr)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = Logger
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
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

// Init configures the global logger level and output format.
// pretty switches to the human readable console writer.
func Init(level string, pretty bool) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	var output io.Writer = os.Stderr
	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = newLogger(output)
	log.Logger = Logger
}

// SetLevel changes the global level at runtime (config hot reload).
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// SetOutput redirects the global logger, mostly for tests.
func SetOutput(w io.Writer) {
	Logger = newLogger(w)
	log.Logger = Logger
}

// Get returns the global logger instance
func Get() *zerolog.Logger {
	return &Logger
}

// WithComponent returns a logger with a component field set
func WithComponent(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}
