// Package logger provides structured logging for mediacat.
// It wraps hashicorp/go-hclog so components can derive named sub-loggers
// while the rest of the code uses simple package-level helpers.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	root hclog.Logger
	mu   sync.RWMutex
)

func init() {
	root = newRoot(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func newRoot(level, format string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "mediacat",
		Level:      parseLevel(level),
		JSONFormat: strings.EqualFold(format, "json"),
		Output:     os.Stderr,
	})
}

func parseLevel(level string) hclog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}

// Configure replaces the root logger. Called once at startup after the
// configuration has been loaded; safe to call again from tests.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()
	root = newRoot(level, format)
}

// Named returns a sub-logger for a component (e.g. "mutation-queue").
func Named(name string) hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root.Named(name)
}

// Info logs at info level. Args are alternating key/value pairs.
func Info(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Error(msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	root.Debug(msg, args...)
}
