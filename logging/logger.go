// Package logging provides a tiny abstraction over slog so engine code
// depends on a minimal interface (Logger) while callers can plug any
// structured logger. It also offers a richer LoomLogger with contextual
// helpers (thread, component) and domain specific helpers for step
// transitions, planner calls and tool executions.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the minimal logging interface consumed by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement Logger.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// NewDefaultLogger creates a Logger using slog.Default().
func NewDefaultLogger() Logger { return NewSlogAdapter(slog.Default()) }

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NoOpLogger discards all log messages. Useful for tests or when logging is
// disabled.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// Config configures construction of a LoomLogger.
type Config struct {
	Level     slog.Level
	Format    string // json or text
	Output    io.Writer
	Component string
}

// DefaultConfig returns a baseline JSON info-level configuration.
func DefaultConfig() *Config {
	return &Config{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
}

// LoomLogger wraps slog.Logger adding contextual cloning helpers and domain
// convenience methods. It is cheap to copy via the With* methods.
type LoomLogger struct {
	logger    *slog.Logger
	component string
	threadID  string
}

// New builds a LoomLogger from a config (or defaults if nil).
func New(cfg *Config) *LoomLogger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &LoomLogger{logger: slog.New(handler), component: cfg.Component}
}

// WithComponent returns a copy bound to a logical component (graph, runner,
// checkpoint, planner).
func (l *LoomLogger) WithComponent(c string) *LoomLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithThread returns a copy bound to a conversation thread.
func (l *LoomLogger) WithThread(threadID string) *LoomLogger {
	nl := *l
	nl.threadID = threadID
	return &nl
}

func (l *LoomLogger) attrs(extra ...slog.Attr) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)+2)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.threadID != "" {
		attrs = append(attrs, slog.String("thread_id", l.threadID))
	}
	return append(attrs, extra...)
}

// Debug logs at debug level.
func (l *LoomLogger) Debug(msg string, args ...any) {
	l.logger.With(anyArgs(l.attrs())...).Debug(msg, args...)
}

// Info logs at info level.
func (l *LoomLogger) Info(msg string, args ...any) {
	l.logger.With(anyArgs(l.attrs())...).Info(msg, args...)
}

// Warn logs at warn level.
func (l *LoomLogger) Warn(msg string, args ...any) {
	l.logger.With(anyArgs(l.attrs())...).Warn(msg, args...)
}

// Error logs at error level.
func (l *LoomLogger) Error(msg string, args ...any) {
	l.logger.With(anyArgs(l.attrs())...).Error(msg, args...)
}

// LogStepTransition records one completed graph step.
func (l *LoomLogger) LogStepTransition(from, to string, iteration int) {
	l.Info("step transition", "from", from, "to", to, "iteration", iteration)
}

// LogPlannerCall records planner call latency and outcome.
func (l *LoomLogger) LogPlannerCall(op string, attempt int, dur time.Duration, err error) {
	if err != nil {
		l.Error("planner call failed", "op", op, "attempt", attempt, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("planner call completed", "op", op, "attempt", attempt, "duration_ms", dur.Milliseconds())
}

// LogToolCall records execution details for a tool dispatch.
func (l *LoomLogger) LogToolCall(tool string, dur time.Duration, err error) {
	if err != nil {
		l.Error("tool execution failed", "tool", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("tool execution completed", "tool", tool, "duration_ms", dur.Milliseconds())
}

// LogTurn records aggregate turn metrics.
func (l *LoomLogger) LogTurn(steps int, dur time.Duration, err error) {
	if err != nil {
		l.Error("turn failed", "steps", steps, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("turn completed", "steps", steps, "duration_ms", dur.Milliseconds())
}

func anyArgs(attrs []slog.Attr) []any {
	out := make([]any, len(attrs))
	for i, a := range attrs {
		out[i] = a
	}
	return out
}
