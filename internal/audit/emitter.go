package audit

import (
	"context"
	"log/slog"
)

// Emitter is a sink for audit events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, event Event) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Nop discards events.
type Nop struct{}

// Emit implements Emitter.
func (Nop) Emit(context.Context, Event) error { return nil }

// LogEmitter writes events to structured logging.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter writing to logger, or slog.Default when nil.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements Emitter.
func (l *LogEmitter) Emit(ctx context.Context, event Event) error {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID.String()),
		slog.String("type", string(event.Type)),
		slog.Time("at", event.Timestamp),
	}
	if event.Label != "" {
		attrs = append(attrs, slog.String("label", event.Label))
	}
	if event.Type != TypeRelocked && event.Type != TypeActuatorUnreachable {
		attrs = append(attrs, slog.Float64("score", event.Score))
	}
	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}
	l.logger.LogAttrs(ctx, level(event.Severity), "audit", attrs...)
	return nil
}

func level(s Severity) slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Multi fans an event out to several sinks. A failing sink is logged and
// skipped; Emit always returns nil so a broken sink never interrupts a cycle.
type Multi struct {
	logger   *slog.Logger
	emitters []Emitter
}

// NewMulti creates a fan-out emitter. Nil emitters are ignored.
func NewMulti(logger *slog.Logger, emitters ...Emitter) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multi{logger: logger}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

// Emit implements Emitter.
func (m *Multi) Emit(ctx context.Context, event Event) error {
	for _, e := range m.emitters {
		if err := e.Emit(ctx, event); err != nil {
			m.logger.Error("audit sink failed", "event_id", event.ID, "type", event.Type, "error", err)
		}
	}
	return nil
}
