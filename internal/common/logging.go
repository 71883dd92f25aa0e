// Package common provides shared utilities for gqlbridge.
package common

import (
	"os"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

const logTimeFormat = "2006-01-02T15:04:05Z07:00"

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// Logger wraps arbor.ILogger to provide a consistent interface.
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a logger with the given level writing to the console
// (stderr) and the default log file.
func NewLogger(level string) *Logger {
	return NewLoggerFromConfig(LoggingConfig{
		Level:   level,
		Outputs: []string{"console", "file"},
	})
}

// NewLoggerFromConfig creates a logger configured from LoggingConfig.
// Supported outputs are console, file, and memory. Console output goes to
// stderr so it never corrupts the stdio MCP transport on stdout.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	l := arbor.NewLogger()

	outputs := cfg.Outputs
	if len(outputs) == 0 {
		outputs = []string{"console", "file"}
	}
	for _, out := range outputs {
		switch out {
		case "console":
			l = l.WithConsoleWriter(consoleWriterConfig())
		case "file":
			l = l.WithFileWriter(fileWriterConfig(cfg))
		}
	}

	// The memory writer retains recent entries for diagnostics and is
	// always on.
	l = l.WithMemoryWriter(models.WriterConfiguration{
		Type: models.LogWriterTypeMemory,
	})

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return &Logger{ILogger: l.WithLevelFromString(level)}
}

func consoleWriterConfig() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		Writer:     os.Stderr,
		TimeFormat: logTimeFormat,
	}
}

func fileWriterConfig(cfg LoggingConfig) models.WriterConfiguration {
	out := models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   cfg.FilePath,
		MaxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
		MaxBackups: cfg.MaxBackups,
		TimeFormat: logTimeFormat,
	}
	if out.FileName == "" {
		out.FileName = "logs/gqlbridge.log"
	}
	if out.MaxSize <= 0 {
		out.MaxSize = 500 * 1024
	}
	if out.MaxBackups <= 0 {
		out.MaxBackups = 10
	}
	return out
}

// NewDefaultLogger creates a logger with default settings.
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// discardWriter implements writers.IWriter and drops everything. Silent
// loggers need it so output cannot fall through to globally-registered
// writers.
type discardWriter struct{}

func (w *discardWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w *discardWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *discardWriter) GetFilePath() string                   { return "" }
func (w *discardWriter) Close() error                          { return nil }

// NewSilentLogger creates a logger that discards all output, for tests and
// for components handed a nil logger.
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewLogger().WithWriters([]writers.IWriter{&discardWriter{}})}
}

// WithCorrelationId returns a new Logger with a correlation ID set.
// Used by tool handlers to trace a call through all layers.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}
