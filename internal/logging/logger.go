// Package logging provides structured logging for the buildplan tools.
//
// Loggers are named after the component that owns them and write one line
// per message to a shared writer (stderr unless SetOutput is called), so a
// plan printed on stdout is never interleaved with diagnostics.
//
// Basic Usage
//
//	logging.Initialize("info")
//	logger := logging.GetLogger("cli.resolve")
//	logger.Info("resolved %s", path)
//
// Structured fields:
//
//	logger.InfoWithFields("plan written",
//	    logging.Field("path", outFile),
//	    logging.Field("digest", p.Digest),
//	)
//
// Persistent fields:
//
//	runLogger := logger.WithField("invocation_id", id)
//
// Per-Package Log Levels
//
// The default level can be overridden for single loggers or for a
// dotted prefix:
//
//	logging.Initialize("info", map[string]string{
//	    "config.watcher": "debug",
//	    "cli.*":          "warn",
//	})
//
// Exact names win over patterns, and longer patterns win over shorter ones.
//
// Testing
//
// Set LOG_TIMESTAMP to a fixed value for deterministic output and capture
// lines with SetOutput.
package logging

import (
	"os"
	"sync"
)

var (
	globalLevel   = INFO
	globalLevelMu sync.RWMutex
	// exitFunc is called by Fatal; overridden in tests
	exitFunc = os.Exit
)

// Initialize sets the default level and optional per-package overrides.
// packageLevels maps logger names or "prefix.*" patterns to level names.
func Initialize(levelStr string, packageLevels ...map[string]string) error {
	level, err := ParseLevel(levelStr)
	if err != nil {
		return err
	}

	globalLevelMu.Lock()
	globalLevel = level
	globalLevelMu.Unlock()

	if len(packageLevels) > 0 && packageLevels[0] != nil {
		if err := SetPackageLogLevels(packageLevels[0]); err != nil {
			return err
		}
	}
	return nil
}

// GetLogger returns a logger with the specified name at the current
// default level
func GetLogger(name string) *Logger {
	globalLevelMu.RLock()
	level := globalLevel
	globalLevelMu.RUnlock()

	return &Logger{
		level:  level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// shouldLog applies per-package overrides before the logger's own level
func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := GetPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(strError, msg, args...)
	}
}

// Fatal logs a fatal message and exits the program with code 1
func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf(strFatal, msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs an error message with an error object
func (l *Logger) ErrorWithErr(msg string, err error) {
	if l.shouldLog(ERROR) {
		l.logWithFields(strError, msg, Field("error", err))
	}
}

// WithName returns a copy of the logger under a different name
func (l *Logger) WithName(name string) *Logger {
	return &Logger{
		level:  l.level,
		name:   name,
		fields: cloneFields(l.fields),
	}
}

// WithField adds a structured field to the logger
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
	}
	newLogger.fields[key] = value
	return newLogger
}

// WithFields adds multiple structured fields to the logger
func (l *Logger) WithFields(fields ...LogField) *Logger {
	newLogger := &Logger{
		level:  l.level,
		name:   l.name,
		fields: cloneFields(l.fields),
	}
	for _, f := range fields {
		newLogger.fields[f.Key] = f.Value
	}
	return newLogger
}

// DebugWithFields logs a debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

// InfoWithFields logs an info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields("INFO", msg, fields...)
	}
}

// WarnWithFields logs a warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields("WARN", msg, fields...)
	}
}

// ErrorWithFields logs an error message with structured fields
func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(strError, msg, fields...)
	}
}
