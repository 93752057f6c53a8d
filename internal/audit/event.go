// Package audit records every access decision and actuator failure.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened at the door.
type Type string

const (
	TypeGranted             Type = "access.granted"
	TypeDenied              Type = "access.denied"
	TypeSuppressed          Type = "access.suppressed" // face evaluated inside the cooldown window
	TypeActuatorUnreachable Type = "actuator.unreachable"
	TypeRelocked            Type = "lock.relocked"
)

// Types lists every event type in a stable order.
var Types = []Type{TypeGranted, TypeDenied, TypeSuppressed, TypeActuatorUnreachable, TypeRelocked}

// ValidType reports whether t is a known event type.
func ValidType(t string) bool {
	for _, known := range Types {
		if string(known) == t {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one audit record. Timestamp comes from the controller's clock,
// not from the sink.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label,omitempty"`
	Score     float64   `json:"score"`
	Details   string    `json:"details,omitempty"`
}

func newEvent(typ Type, sev Severity, t time.Time) Event {
	return Event{ID: uuid.New(), Type: typ, Severity: sev, Timestamp: t}
}

// Granted records an accepted face that unlocked the door.
func Granted(label string, score float64, t time.Time) Event {
	e := newEvent(TypeGranted, SeverityInfo, t)
	e.Label = label
	e.Score = score
	return e
}

// Denied records a rejected face.
func Denied(score float64, t time.Time) Event {
	e := newEvent(TypeDenied, SeverityWarning, t)
	e.Score = score
	return e
}

// Suppressed records a face evaluated while the cooldown was active.
// label is empty when the face would have been rejected anyway.
func Suppressed(label string, score float64, remaining time.Duration, t time.Time) Event {
	e := newEvent(TypeSuppressed, SeverityInfo, t)
	e.Label = label
	e.Score = score
	e.Details = "cooldown remaining " + remaining.Round(time.Millisecond).String()
	return e
}

// ActuatorUnreachable records a failed unlock command. The lock state is not rolled back.
func ActuatorUnreachable(label string, err error, t time.Time) Event {
	e := newEvent(TypeActuatorUnreachable, SeverityError, t)
	e.Label = label
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// Relocked records the automatic return to Locked after the unlock duration.
func Relocked(t time.Time) Event {
	return newEvent(TypeRelocked, SeverityInfo, t)
}
