package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a structured logger writing to stderr
func New(prefix, level string) *log.Logger {
	return NewWithWriter(os.Stderr, prefix, level)
}

// NewWithWriter creates a structured logger with a custom writer.
// Unknown levels fall back to info.
func NewWithWriter(w io.Writer, prefix, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}

	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    lvl == log.DebugLevel,
		Prefix:          prefix,
		Level:           lvl,
	})
}

// Discard returns a logger that drops everything, for tests
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
