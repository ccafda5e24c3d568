// Package logging configures the slog logger shared by the executables.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ParseLevel converts a string log level to slog.Level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a text logger writing to console and, when non-nil, file.
// Timestamps are RFC3339 in UTC.
func Setup(console, file io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, opts))
	}
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, opts))
	}
	if len(handlers) == 0 {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(NewMultiHandler(handlers...))
}

// LogFilePath builds a log file path for one run.
func LogFilePath(logsDir, name string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, start.Format("20060102_150405")))
}

// OpenLogFile creates the logs directory if needed and opens the run's log file for append.
func OpenLogFile(logsDir, name string, start time.Time) (*os.File, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	path := LogFilePath(logsDir, name, start)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
