// Package logger builds the bullets loggers used across repohost.
//
// Every component that logs accepts a *bullets.Logger through a SetLogger
// method and starts out with [NoLogger], so library callers get silence unless
// they opt in:
//
//	log := logger.NewLogger("debug")
//	r := reconcile.New(client)
//	r.SetLogger(log)
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sgaunet/bullets"
)

// Levels accepted by [ParseLevel], in increasing severity.
var Levels = []string{"debug", "info", "warn", "error"}

// ParseLevel maps a level name to a bullets level. Unknown names map to info.
func ParseLevel(name string) bullets.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return bullets.DebugLevel
	case "warn", "warning":
		return bullets.WarnLevel
	case "error":
		return bullets.ErrorLevel
	default:
		return bullets.InfoLevel
	}
}

// NewLogger creates a logger on stderr at the given level, keeping stdout free
// for command output such as file contents and diffs.
func NewLogger(level string) *bullets.Logger {
	return NewLoggerTo(os.Stderr, level)
}

// NewLoggerTo creates a logger writing to w at the given level.
func NewLoggerTo(w io.Writer, level string) *bullets.Logger {
	log := bullets.New(w)
	log.SetLevel(ParseLevel(level))
	return log
}

// NoLogger creates a logger that suppresses all output.
func NoLogger() *bullets.Logger {
	log := bullets.New(io.Discard)
	log.SetLevel(bullets.FatalLevel)
	return log
}
