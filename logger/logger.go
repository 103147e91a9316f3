// Package logger defines the logging interface used by the rest of the
// module, along with JSON, test, and no-op implementations.
package logger

import (
	"os"
	"strings"
)

// LogLevel defines the level of logging
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

// GetLevelFromEnv will look at the environment var `MEMOIZE_LOG_LEVEL` and
// convert it into the appropriate LogLevel
func GetLevelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("MEMOIZE_LOG_LEVEL")) {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is an interface for logging
type Logger interface {
	// With will return a new logger using metadata as the base context
	With(metadata map[string]interface{}) Logger
	// WithPrefix will return a new logger with a prefix prepended to the message
	WithPrefix(prefix string) Logger
	// Trace level logging
	Trace(msg string, args ...interface{})
	// Debug level logging
	Debug(msg string, args ...interface{})
	// Info level logging
	Info(msg string, args ...interface{})
	// Warning level logging
	Warn(msg string, args ...interface{})
	// Error level logging
	Error(msg string, args ...interface{})
	// IsLevelEnabled returns true if the given log level is enabled
	IsLevelEnabled(level LogLevel) bool
}

type nullLogger struct{}

var _ Logger = (*nullLogger)(nil)

func (n *nullLogger) With(map[string]interface{}) Logger { return n }
func (n *nullLogger) WithPrefix(string) Logger           { return n }
func (n *nullLogger) Trace(string, ...interface{})       {}
func (n *nullLogger) Debug(string, ...interface{})       {}
func (n *nullLogger) Info(string, ...interface{})        {}
func (n *nullLogger) Warn(string, ...interface{})        {}
func (n *nullLogger) Error(string, ...interface{})       {}
func (n *nullLogger) IsLevelEnabled(LogLevel) bool       { return false }

// NewNull returns a Logger that discards everything. It is the default for
// handles constructed without an explicit logger.
func NewNull() Logger {
	return &nullLogger{}
}
