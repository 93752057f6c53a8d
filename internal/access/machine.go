// Package access owns the lock state and turns match decisions into unlock
// commands and audit events.
package access

import (
	"time"

	"github.com/kozaktomas/facegate/internal/facematch"
)

// LockState is the physical state the controller believes the lock is in.
type LockState string

const (
	Locked   LockState = "locked"
	Unlocked LockState = "unlocked"
)

// Timing holds the two windows opened by a granted face.
type Timing struct {
	CooldownPeriod time.Duration
	UnlockDuration time.Duration
}

// State is the access state. A zero deadline means unset.
// Cooldown is orthogonal to the lock: it is active while t < CooldownDeadline.
type State struct {
	Lock             LockState
	UnlockDeadline   time.Time
	CooldownDeadline time.Time
}

// Kind classifies what a cycle did with its decision.
type Kind string

const (
	KindNone       Kind = "none" // no face this cycle
	KindGranted    Kind = "granted"
	KindDenied     Kind = "denied"
	KindSuppressed Kind = "suppressed" // face evaluated inside the cooldown window
)

// Transition is the result of one Step.
type Transition struct {
	Relocked bool // the unlock duration elapsed at the start of this cycle
	Kind     Kind
	Command  bool // exactly one unlock command must be issued
}

// Machine is the lock/cooldown state machine. It is not safe for concurrent
// use; Controller serializes access to it.
type Machine struct {
	timing Timing
	state  State
}

// NewMachine creates a machine in the initial Locked state with no deadlines.
func NewMachine(timing Timing) *Machine {
	return &Machine{timing: timing, state: State{Lock: Locked}}
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// Expire re-locks when the unlock deadline has been reached.
func (m *Machine) Expire(t time.Time) bool {
	if m.state.Lock == Unlocked && !t.Before(m.state.UnlockDeadline) {
		m.state.Lock = Locked
		m.state.UnlockDeadline = time.Time{}
		return true
	}
	return false
}

// InCooldown reports whether t falls inside the cooldown window.
func (m *Machine) InCooldown(t time.Time) bool {
	return !m.state.CooldownDeadline.IsZero() && t.Before(m.state.CooldownDeadline)
}

// Step runs one cycle at t. A nil decision means no face was evaluated and
// only the re-lock check runs. The re-lock always happens before the decision
// is considered.
func (m *Machine) Step(t time.Time, d *facematch.Decision) Transition {
	tr := Transition{Relocked: m.Expire(t), Kind: KindNone}
	if d == nil {
		return tr
	}

	switch {
	case m.InCooldown(t):
		tr.Kind = KindSuppressed
	case d.Accepted():
		m.state.Lock = Unlocked
		m.state.UnlockDeadline = t.Add(m.timing.UnlockDuration)
		m.state.CooldownDeadline = t.Add(m.timing.CooldownPeriod)
		tr.Kind = KindGranted
		tr.Command = true
	default:
		tr.Kind = KindDenied
	}
	return tr
}
