// Package logger builds the prefixed charm loggers used by the suggest engine,
// the msgpack server and the config watcher.
//
// Loggers write to stderr: stdout belongs to the IPC protocol in server mode.
package logger

import (
	"os"

	"github.com/charmbracelet/log"
)

// Component prefixes.
const (
	Suggest = "suggest"
	Server  = "server"
	Watch   = "watch"
)

// New returns a logger for component that follows the global log level.
// Timestamps are shown only in debug mode.
func New(component string) *log.Logger {
	level := log.GetLevel()
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          component,
		Level:           level,
		ReportTimestamp: level == log.DebugLevel,
		Formatter:       log.TextFormatter,
	})
}

// NewDebug returns a logger for component that reports every message with
// timestamps and the calling site, for tracing a single component under -d.
func NewDebug(component string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          component,
		Level:           log.DebugLevel,
		ReportCaller:    true,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
	})
}
