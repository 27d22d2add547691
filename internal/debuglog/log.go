package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (l LogLevel) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelInfo:
		return log.InfoLevel
	case LevelWarn:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	logger       *log.Logger
	logFile      *os.File
)

// DefaultPath is where the log goes when Setup gets no path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dex", "dex.log")
}

// Setup configures the logging system with the specified level and optional
// file path. The TUI owns the terminal, so output always goes to a file.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	if level == LevelOff {
		return nil
	}

	logPath := DefaultPath()
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	logFile = f
	logger = log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Level:           level.charm(),
		Prefix:          "dex",
	})
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	if logger != nil && level != LevelOff {
		logger.SetLevel(level.charm())
	}
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// Close closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	logger = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// active returns the logger when level is enabled, nil otherwise.
func active(level LogLevel) *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil || currentLevel == LevelOff || level < currentLevel {
		return nil
	}
	return logger
}

func Debugf(format string, args ...any) {
	if l := active(LevelDebug); l != nil {
		l.Debugf(format, args...)
	}
}

func Infof(format string, args ...any) {
	if l := active(LevelInfo); l != nil {
		l.Infof(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if l := active(LevelWarn); l != nil {
		l.Warnf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	if l := active(LevelError); l != nil {
		l.Errorf(format, args...)
	}
}

// FieldLogger attaches key/value pairs to every message.
type FieldLogger struct {
	keyvals []interface{}
}

// WithFields returns a logger that appends fields to each message in key order.
func WithFields(fields map[string]interface{}) *FieldLogger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	keyvals := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		keyvals = append(keyvals, k, fields[k])
	}
	return &FieldLogger{keyvals: keyvals}
}

func (fl *FieldLogger) logf(level LogLevel, format string, args ...any) {
	l := active(level)
	if l == nil {
		return
	}
	l.Log(level.charm(), fmt.Sprintf(format, args...), fl.keyvals...)
}

func (fl *FieldLogger) Debugf(format string, args ...any) { fl.logf(LevelDebug, format, args...) }
func (fl *FieldLogger) Infof(format string, args ...any)  { fl.logf(LevelInfo, format, args...) }
func (fl *FieldLogger) Warnf(format string, args ...any)  { fl.logf(LevelWarn, format, args...) }
func (fl *FieldLogger) Errorf(format string, args ...any) { fl.logf(LevelError, format, args...) }
