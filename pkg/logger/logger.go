// Package logger provides the global diagnostic log used by the engine.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalLogger *log.Logger
	logOutput    io.WriteCloser
	mu           sync.Mutex
)

// Rotation configures size based rotation of the log file.
type Rotation struct {
	MaxSizeMB  int  // Megabytes before rotating (0 uses lumberjack's default)
	MaxBackups int  // Rotated files to keep (0 keeps all)
	MaxAgeDays int  // Days to keep rotated files (0 keeps all)
	Compress   bool // Gzip rotated files
}

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	setOutput(f)
	return nil
}

// InitWithRotation initializes the global logger writing through a rotating file.
func InitWithRotation(logPath string, r Rotation) error {
	if logPath == "" {
		return fmt.Errorf("log path is empty")
	}
	setOutput(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    r.MaxSizeMB,
		MaxBackups: r.MaxBackups,
		MaxAge:     r.MaxAgeDays,
		Compress:   r.Compress,
	})
	return nil
}

// InitWriter directs the global logger to w. Used by tests and the CLI's
// verbose mode; Close does not close w.
func InitWriter(w io.Writer) {
	setOutput(nopCloser{w})
}

func setOutput(w io.WriteCloser) {
	mu.Lock()
	defer mu.Unlock()

	// Close previous output if exists
	if logOutput != nil {
		logOutput.Close()
	}

	logOutput = w
	globalLogger = log.New(w, "", log.Ltime|log.Lmicroseconds)
}

// Close closes the log output.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logOutput != nil {
		logOutput.Close()
		logOutput = nil
		globalLogger = nil
	}
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	logf("[INFO] ", format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	logf("[DEBUG] ", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	logf("[ERROR] ", format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	logf("[WARN] ", format, v...)
}

func logf(prefix, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf(prefix+format, v...)
	}
}

// GetWriter returns the underlying writer.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logOutput != nil {
		return logOutput
	}
	return io.Discard
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
