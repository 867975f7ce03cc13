// Package ports defines the boundaries between the decoder core and the
// engine, host, logging and storage adapters around it.
package ports

import "strings"

// LogLevel is the minimum severity a logger emits.
type LogLevel int

const (
	// LevelDebug covers per-unit and per-picture detail from components.
	LevelDebug LogLevel = iota
	// LevelInfo covers stream-level progress.
	LevelInfo
	// LevelWarn covers dropped pictures and other recoverable problems.
	LevelWarn
	// LevelError covers failures that end a stream.
	LevelError
	// LevelQuiet suppresses everything.
	LevelQuiet
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

// String returns the lower-case level name.
func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name, falling back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	if s == "warning" {
		return LevelWarn
	}
	return LevelInfo
}

// Logger is a leveled logger whose messages are translation keys.
type Logger interface {
	// Debug logs component-internal detail.
	Debug(msg string, args ...interface{})

	Info(msg string, args ...interface{})

	// Warn logs a recoverable problem such as a dropped picture.
	Warn(msg string, args ...interface{})

	Error(msg string, args ...interface{})

	// WithComponent returns a logger that prefixes messages with component.
	WithComponent(component string) Logger
}
