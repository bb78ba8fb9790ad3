// Package logging is the human-readable diagnostic log. Structured pipeline
// events go to internal/otel; this log records process-level happenings such
// as startup, config problems and storage failures.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger. It discards until Init or SetOutput.
	Logger = log.New(io.Discard)

	logFile *os.File
)

// Init opens a dated log file under dataDir/logs and points Logger at it.
func Init(dataDir string, level log.Level) error {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("vitrine-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	SetOutput(f, level)
	return nil
}

// SetOutput replaces the global logger with one writing to w.
func SetOutput(w io.Writer, level log.Level) {
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           level,
	})
}

// Close closes the log file opened by Init.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	Logger = log.New(io.Discard)
}

// Info logs an info message.
func Info(msg string, keyvals ...any) { Logger.Info(msg, keyvals...) }

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) { Logger.Debug(msg, keyvals...) }

// Warn logs a warning.
func Warn(msg string, keyvals ...any) { Logger.Warn(msg, keyvals...) }

// Error logs an error.
func Error(msg string, keyvals ...any) { Logger.Error(msg, keyvals...) }

// WithPrefix returns a child logger with a prefix.
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}
