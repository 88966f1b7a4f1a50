package code

import (
	"fmt"
	"log/slog"
	"time"
)

// Logger is an optional interface for observability during code execution.
// Implementations can log run summaries, timing information, and other events.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: logging must be best-effort; Logf should not panic.
// - Ownership: format/args are read-only.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}

// SlogLogger adapts a *slog.Logger to Logger, logging at Info level.
type SlogLogger struct {
	L *slog.Logger
}

// NewSlogLogger returns a Logger writing to l, or slog.Default() when l
// is nil.
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

// Logf logs the formatted message.
func (s SlogLogger) Logf(format string, args ...any) {
	s.L.Info(fmt.Sprintf(format, args...), slog.String("component", "code"))
}

// Status values reported to an Observer.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusTimeout    = "timeout"
	StatusCapability = "capability"
	StatusInput      = "input"
)

// Observer receives one report per run.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: observation is best-effort and must not panic.
type Observer interface {
	// ObserveExecution records a finished run.
	ObserveExecution(status string, duration time.Duration, charts int)
}
