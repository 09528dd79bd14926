package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	*slog.Logger
}

// LogConfig selects the level, output format and destination of a Logger.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text (colored) or json
	Writer io.Writer
}

// NewLogger creates a Logger. Text output goes through tint, JSON through
// the standard slog handler. Writer defaults to stdout.
func NewLogger(cfg LogConfig) *Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// NewDiscardLogger returns a Logger that drops everything. Used in tests.
func NewDiscardLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// With returns a child Logger that adds the given attributes to every line.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}
