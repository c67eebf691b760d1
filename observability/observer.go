// Package observability provides event-based observability for the reactive
// state engine and its boundary layers. Engine operations (writes,
// notifications, computed recomputes, flushes) emit Events through an
// Observer rather than logging directly, so hosts decide how state activity
// is logged, traced, or counted. Level values align with OpenTelemetry
// SeverityNumbers for zero-translation compatibility with OTel collectors.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level represents event severity aligned with OTel SeverityNumber ranges.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8), maps to slog.LevelDebug
	LevelInfo    Level = 9  // OTel INFO (9-12), maps to slog.LevelInfo
	LevelWarning Level = 13 // OTel WARN (13-16), maps to slog.LevelWarn
	LevelError   Level = 17 // OTel ERROR (17-20), maps to slog.LevelError
)

// String returns the OTel severity text for the level.
func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// SlogLevel maps this level to the corresponding slog.Level for log emission.
func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType identifies the kind of event. Each package defines its own
// constants using this type (e.g., "state.set", "computed.recompute").
type EventType string

// Event is an observability event emitted by the engine or a boundary layer.
// Fields map to OTel LogRecord fields: Type→EventName, Level→SeverityNumber,
// Timestamp→Timestamp, Source→InstrumentationScope, Data→Attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events from engine components for logging, tracing, or
// metrics. Observers run inside the engine's synchronous notification and
// recompute paths, so implementations must not write back into the state
// handle that emitted the event.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// NoOpObserver discards all events with zero overhead.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
