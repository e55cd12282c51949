// Package logging provides component loggers for smartzip, backed by
// charmbracelet/log. Console output goes to stderr so that standard output
// stays free for an archive streamed with "-".
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info", ConsoleLevel: "warn"}); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("archive")
//	logger.Info("entry written", "name", "docs/a.txt")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level is a log severity. It is charmbracelet/log's level type.
type Level = log.Level

// Levels understood by ParseLevel.
const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses debug, info, warn (or warning), or error, ignoring
// case and surrounding space.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	level, err := log.ParseLevel(name)
	if err != nil || level > LevelError {
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}

// Config configures the logging system.
type Config struct {
	// Level is the file log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty disables the log file.
	Path string

	// ConsoleLevel enables stderr output at the given level.
	// Empty disables console output.
	ConsoleLevel string

	// Console overrides the console writer. Nil means os.Stderr.
	Console io.Writer

	// Rotation bounds the log file at Path.
	Rotation Rotation
}

// Logger writes to the log file and, when enabled, the console. Each sink
// filters by its own level.
type Logger struct {
	sinks []*log.Logger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.emit(LevelDebug, msg, args)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.emit(LevelInfo, msg, args)
}

// Warn logs a warning.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.emit(LevelWarn, msg, args)
}

// Error logs an error.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.emit(LevelError, msg, args)
}

func (l *Logger) emit(level Level, msg string, args []interface{}) {
	for _, sink := range l.sinks {
		sink.Log(level, msg, args...)
	}
}

// With returns a logger that adds key/value pairs to every message.
func (l *Logger) With(args ...interface{}) *Logger {
	sinks := make([]*log.Logger, len(l.sinks))
	for i, sink := range l.sinks {
		sinks[i] = sink.With(args...)
	}
	return &Logger{sinks: sinks}
}

// registry holds the active sinks and every component logger handed out.
var registry = struct {
	sync.Mutex
	file         *rotatingFile
	fileLevel    Level
	console      io.Writer // nil while console output is off
	consoleLevel Level
	loggers      map[string]*Logger
}{loggers: make(map[string]*Logger)}

// Init configures the sinks. Loggers obtained earlier are rebuilt in
// place, so package-level loggers pick up the configuration.
func Init(cfg Config) error {
	fileLevel := LevelInfo
	if cfg.Level != "" {
		parsed, err := ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		fileLevel = parsed
	}
	var consoleLevel Level
	if cfg.ConsoleLevel != "" {
		parsed, err := ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		consoleLevel = parsed
	}

	registry.Lock()
	defer registry.Unlock()

	if err := closeFile(); err != nil {
		return err
	}
	if cfg.Path != "" {
		f, err := openRotating(cfg.Path, cfg.Rotation)
		if err != nil {
			return err
		}
		registry.file = f
	}
	registry.fileLevel = fileLevel

	registry.console = nil
	if cfg.ConsoleLevel != "" {
		registry.console = cfg.Console
		if registry.console == nil {
			registry.console = os.Stderr
		}
		registry.consoleLevel = consoleLevel
	}

	rebuild()
	return nil
}

// Get returns the logger for component. Until Init runs it discards
// everything.
func Get(component string) *Logger {
	registry.Lock()
	defer registry.Unlock()

	if logger, ok := registry.loggers[component]; ok {
		return logger
	}
	logger := &Logger{sinks: sinksFor(component)}
	registry.loggers[component] = logger
	return logger
}

// Close closes the log file and silences every logger.
func Close() error {
	registry.Lock()
	defer registry.Unlock()

	err := closeFile()
	registry.console = nil
	rebuild()
	return err
}

// The helpers below require the registry lock.

func closeFile() error {
	if registry.file == nil {
		return nil
	}
	err := registry.file.Close()
	registry.file = nil
	if err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

func rebuild() {
	for component, logger := range registry.loggers {
		logger.sinks = sinksFor(component)
	}
}

func sinksFor(component string) []*log.Logger {
	var sinks []*log.Logger
	if registry.file != nil {
		sinks = append(sinks, log.NewWithOptions(registry.file, log.Options{
			Level:           registry.fileLevel,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}))
	}
	if registry.console != nil {
		sinks = append(sinks, log.NewWithOptions(registry.console, log.Options{
			Level:           registry.consoleLevel,
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		}))
	}
	return sinks
}

// DefaultLogPath returns $XDG_STATE_HOME/smartzip/smartzip.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "smartzip", "smartzip.log")
}
