// Package logging builds the structured loggers handed to every component.
// Loggers are created once by the command layer and passed down through
// options; nothing in this package keeps a global logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds logger configuration.
type Config struct {
	Level     slog.Level // Minimum log level
	JSON      bool       // Use JSON output format
	Output    io.Writer  // Output destination (default: stderr)
	AddSource bool       // Include source file and line number
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelWarn,
		JSON:   false,
		Output: os.Stderr,
	}
}

// DebugConfig returns a configuration suitable for debug mode.
func DebugConfig() Config {
	return Config{
		Level:     slog.LevelDebug,
		JSON:      true,
		Output:    os.Stderr,
		AddSource: true,
	}
}

// New returns a logger for cfg. Attributes whose key ends in "path" are
// shown relative to the home directory.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: replacePathAttr,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps debug, info, warn and error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Common structured logging fields.
const (
	KeyOperationID = "op_id"
	KeyOperation   = "op"
	KeyDuration    = "duration_ms"
	KeyError       = "error"
	KeyEngine      = "engine"
	KeyVesselID    = "vessel_id"
	KeyReminderID  = "reminder_id"
	KeyCount       = "count"
)

// LogDuration logs how long an operation took since start.
// Usage: defer LogDuration(logger, "migrate", time.Now())
func LogDuration(logger *slog.Logger, op string, start time.Time, args ...any) {
	allArgs := append([]any{KeyOperation, op, KeyDuration, time.Since(start).Milliseconds()}, args...)
	logger.Debug("operation finished", allArgs...)
}
