// Package logger provides the zap-backed application logger.
package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Stderr is the log path that writes to standard error instead of a file.
const Stderr = "-"

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	globalErr    error
	once         sync.Once
)

// Init configures the process logger on first call. Later calls ignore their
// arguments and return the already initialized instance.
func Init(level, path string) (*Logger, error) {
	once.Do(func() {
		globalLogger, globalErr = New(level, path)
		if globalErr != nil {
			globalLogger = Nop()
		}
	})
	return globalLogger, globalErr
}

// Get returns the process logger, or a no-op logger before Init.
func Get() *Logger {
	if globalLogger == nil {
		return Nop()
	}
	return globalLogger
}
