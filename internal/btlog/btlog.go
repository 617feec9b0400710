// Package btlog provides the structured logging setup shared by every
// daemon component: a slog handler installed once at startup, with a
// runtime-adjustable level and component-scoped child loggers.
package btlog

import (
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

var level = new(slog.LevelVar)

// Init installs the process-wide slog handler, writing structured text
// records to w. Call once from main before any component logs.
func Init(w io.Writer, levelStr string) {
	level.Set(ParseLevel(levelStr))
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// SetLevel adjusts the global log level at runtime.
func SetLevel(levelStr string) {
	level.Set(ParseLevel(levelStr))
}

// ParseLevel maps a level name to an slog.Level, defaulting to Info for
// anything unrecognised.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// For returns a logger scoped to a named component, e.g. btlog.For("sep").
func For(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// idSeq backs the process-wide monotonic id sequence used for Stream
// Setup client callback ids (spec.md §4.2): starts at 1, 0 is reserved
// by callers as the failure sentinel.
var idSeq uint64

// NextID returns the next value in the process-wide monotonic sequence.
func NextID() uint64 {
	return atomic.AddUint64(&idSeq, 1)
}
