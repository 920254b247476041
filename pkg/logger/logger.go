package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component names attached to log lines with the "component" field
const (
	APP          = "app"
	CHAT         = "chat"
	CONFIG       = "config"
	EVENTS       = "events"
	HANDLER      = "handler"
	INTERVENTION = "intervention"
	MIDDLEWARE   = "middleware"
	PERSISTENCE  = "persistence"
	REALTIME     = "realtime"
	SESSION      = "session"
	STORAGE      = "storage"
	SUMMARY      = "summary"
)

func getLogLevel() zerolog.Level {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func getWriter() io.Writer {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	return os.Stderr
}

// Setup configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT
func Setup() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(getLogLevel())
	log.Logger = zerolog.New(getWriter()).With().Timestamp().Logger()
}

// For returns a child of the global logger tagged with a component name
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
