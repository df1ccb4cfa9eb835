// Package log is the process-wide structured logging layer. Output
// always goes to stderr; stdout belongs to generated documents.
package log

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var logger = newLogger("info", "auto")

// Configure replaces the process logger. Level is one of debug, info,
// warn or error. Format is console, json or auto; auto picks console
// when stderr is a terminal.
func Configure(level, format string) {
	logger = newLogger(level, format)
}

func newLogger(level, format string) zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "info":
		lvl = zerolog.InfoLevel
	case "warn", "warning":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}

	if format == "" || format == "auto" {
		format = "json"
		if term.IsTerminal(int(os.Stderr.Fd())) {
			format = "console"
		}
	}

	l := zerolog.New(os.Stderr)
	if format == "console" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	return l.Level(lvl).With().Timestamp().Logger()
}

// Debug logs at debug level with alternating key/value fields.
func Debug(msg string, fields ...interface{}) {
	logger.Debug().Fields(fields).Msg(msg)
}

// Info logs at info level with alternating key/value fields.
func Info(msg string, fields ...interface{}) {
	logger.Info().Fields(fields).Msg(msg)
}

// Warn logs at warn level with alternating key/value fields.
func Warn(msg string, fields ...interface{}) {
	logger.Warn().Fields(fields).Msg(msg)
}

// Error logs at error level with alternating key/value fields.
func Error(msg string, fields ...interface{}) {
	logger.Error().Fields(fields).Msg(msg)
}
