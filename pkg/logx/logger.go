package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Fields is a map of structured data attached to a log entry
type Fields map[string]interface{}

// record represents a single log entry handed to a formatter
type record struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
}

// Formatter renders a record into bytes
type Formatter interface {
	Format(rec *record) ([]byte, error)
}

// Logger is the main logger instance
type Logger struct {
	mu        sync.Mutex
	level     Level
	formatter Formatter
	writer    io.Writer
	exitFunc  func(int)
}

// NewLogger creates a new logger writing to stdout
func NewLogger(level Level, formatter Formatter) *Logger {
	if formatter == nil {
		formatter = NewConsoleFormatter()
	}
	return &Logger{
		level:     level,
		formatter: formatter,
		writer:    os.Stdout,
		exitFunc:  os.Exit,
	}
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput sets the output writer
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// log is the internal logging method
func (l *Logger) log(level Level, msg string, fields Fields, err error) {
	l.mu.Lock()
	enabled := l.level.Enabled(level)
	l.mu.Unlock()
	if !enabled {
		return
	}

	rec := &record{
		Level:     level,
		Message:   msg,
		Fields:    fields,
		Error:     err,
		Timestamp: time.Now(),
	}

	formatted, formatErr := l.formatter.Format(rec)
	if formatErr != nil {
		fmt.Fprintf(os.Stderr, "Error formatting log: %v\n", formatErr)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, writeErr := l.writer.Write(formatted); writeErr != nil {
		fmt.Fprintf(os.Stderr, "Error writing log: %v\n", writeErr)
	}
}

// WithField creates a new entry with a field
func (l *Logger) WithField(key string, value interface{}) *Entry {
	return newEntry(l).WithField(key, value)
}

// WithFields creates a new entry with fields
func (l *Logger) WithFields(fields Fields) *Entry {
	return newEntry(l).WithFields(fields)
}

// WithError creates a new entry with an error
func (l *Logger) WithError(err error) *Entry {
	return newEntry(l).WithError(err)
}

// exit calls the exit function (useful for testing)
func (l *Logger) exit(code int) {
	l.exitFunc(code)
}
