// Package logging builds the slog loggers used by the command line tool.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Levels accepted by the log_level setting and the --log-level flag
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// DefaultLevel is used when no level is configured
const DefaultLevel = "warn"

// SetupHandlerText returns a charmbracelet/log handler writing human readable
// records. Unknown levels fall back to DefaultLevel.
func SetupHandlerText(logLevel string, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}

	opts := log.Options{Prefix: "mergeme", Level: log.WarnLevel}
	switch strings.ToLower(logLevel) {
	case "trace":
		opts.ReportCaller = true
		opts.ReportTimestamp = true
		opts.Level = log.DebugLevel
	case "debug":
		opts.ReportTimestamp = true
		opts.Level = log.DebugLevel
	case "info":
		opts.Level = log.InfoLevel
	case "warn", "warning":
		opts.Level = log.WarnLevel
	case "error":
		opts.Level = log.ErrorLevel
	}

	return log.NewWithOptions(writer, opts)
}

// NewLogger returns a logger backed by SetupHandlerText
func NewLogger(logLevel string, writer io.Writer) *slog.Logger {
	return slog.New(SetupHandlerText(logLevel, writer))
}

// SetupLogger installs a text logger as the slog default and returns it
func SetupLogger(logLevel string, writer io.Writer) *slog.Logger {
	logger := NewLogger(logLevel, writer)
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
