package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const runIDKey contextKey = "runID"

// LevelTrace is below debug and only useful when chasing REST traffic
const LevelTrace = slog.LevelDebug - 4

var (
	logger *slog.Logger
	out    io.Writer = os.Stderr
)

func init() {
	// stdout carries the generated Terraform, so logs go to stderr
	logger = slog.New(NewCompactHandler(out, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// SetOutput redirects log output. Mostly useful in tests.
func SetOutput(w io.Writer) {
	out = w
	SetLevel(slog.LevelInfo)
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	handler := NewCompactHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(handler)
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	logger = slog.New(handler)
}

// ParseLevel maps a verbosity name or -v count to a level.
// An explicit name wins over the count.
func ParseLevel(name string, verboseCount int) slog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	switch {
	case verboseCount >= 2:
		return LevelTrace
	case verboseCount == 1:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// New returns a logger tagged with a component name
func New(component string) *slog.Logger {
	return logger.With("component", component)
}

// NewRunID generates an identifier for one extraction run
func NewRunID() string {
	return uuid.New().String()
}

// WithRunID adds a run ID to the context
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// Helper function to add run ID to log attributes if present
func withRunID(ctx context.Context, args []any) []any {
	runID := GetRunID(ctx)
	if runID != "" {
		return append([]any{"runID", runID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	logger.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	logger.Log(ctx, LevelTrace, msg, withRunID(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logger.Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	logger.DebugContext(ctx, msg, withRunID(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logger.Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	logger.InfoContext(ctx, msg, withRunID(ctx, args)...)
}

// Warn logs at WARN level (should be monitored)
func Warn(msg string, args ...any) {
	logger.Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	logger.WarnContext(ctx, msg, withRunID(ctx, args)...)
}

// Error logs at ERROR level
func Error(msg string, args ...any) {
	logger.Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	logger.ErrorContext(ctx, msg, withRunID(ctx, args)...)
}
