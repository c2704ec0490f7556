package logging

import (
	"log"
	"os"
	"sync"
)

// Default process-wide logger. Individual components may still create their
// own via NewLogger, but most code logs through the package-level functions.
var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// InitDefault initialises the default logger for the given component name.
func InitDefault(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}

	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	return nil
}

// CloseDefault closes the default logger's file, if any.
func CloseDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger != nil {
		_ = defaultLogger.Close()
		defaultLogger = nil
	}
}

func getDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Trace logs a TRACE message through the default logger.
func Trace(format string, args ...interface{}) { dispatch(TRACE, format, args...) }

// Debug logs a DEBUG message through the default logger.
func Debug(format string, args ...interface{}) { dispatch(DEBUG, format, args...) }

// Info logs an INFO message through the default logger.
func Info(format string, args ...interface{}) { dispatch(INFO, format, args...) }

// Warn logs a WARN message through the default logger.
func Warn(format string, args ...interface{}) { dispatch(WARN, format, args...) }

// Error logs an ERROR message through the default logger.
func Error(format string, args ...interface{}) { dispatch(ERROR, format, args...) }

func dispatch(level LogLevel, format string, args ...interface{}) {
	if logger := getDefault(); logger != nil {
		logger.log(level, format, args...)
		return
	}
	// Before InitDefault (or in tests) fall back to plain stdout for INFO+.
	if level >= INFO {
		log.New(os.Stdout, "", log.LstdFlags).Printf("[%s] "+format, append([]interface{}{level.String()}, args...)...)
	}
}
