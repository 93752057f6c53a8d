package access

import (
	"testing"
	"time"

	"github.com/kozaktomas/facegate/internal/facematch"
)

var (
	t0     = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	timing = Timing{CooldownPeriod: 10 * time.Second, UnlockDuration: 10 * time.Second}
)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func accept(label string, score float64) *facematch.Decision {
	d := facematch.Decide(facematch.MatchResult{Label: label, Score: score}, 0.4)
	return &d
}

func reject(score float64) *facematch.Decision {
	d := facematch.Decide(facematch.MatchResult{Score: score}, 0.4)
	return &d
}

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine(timing)
	s := m.State()
	if s.Lock != Locked || !s.UnlockDeadline.IsZero() || !s.CooldownDeadline.IsZero() {
		t.Errorf("expected Locked without deadlines, got %+v", s)
	}
	if m.InCooldown(t0) {
		t.Error("fresh machine must not be in cooldown")
	}
}

func TestMachine_Step(t *testing.T) {
	type step struct {
		at       float64
		decision *facematch.Decision
		kind     Kind
		command  bool
		relocked bool
		lock     LockState
	}

	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "accept unlocks and commands once",
			steps: []step{
				{0, accept("alice", 0.62), KindGranted, true, false, Unlocked},
			},
		},
		{
			name: "reject leaves state alone",
			steps: []step{
				{0, reject(0.1), KindDenied, false, false, Locked},
				{1, reject(0), KindDenied, false, false, Locked},
			},
		},
		{
			name: "accept inside cooldown is suppressed",
			steps: []step{
				{0, accept("alice", 0.62), KindGranted, true, false, Unlocked},
				{5, accept("alice", 0.9), KindSuppressed, false, false, Unlocked},
			},
		},
		{
			name: "reject inside cooldown is suppressed",
			steps: []step{
				{0, accept("alice", 0.62), KindGranted, true, false, Unlocked},
				{3, reject(0.2), KindSuppressed, false, false, Unlocked},
			},
		},
		{
			name: "no face after unlock duration relocks",
			steps: []step{
				{0, accept("alice", 0.62), KindGranted, true, false, Unlocked},
				{11, nil, KindNone, false, true, Locked},
				{12, nil, KindNone, false, false, Locked},
			},
		},
		{
			name: "relock exactly at deadline then accept again",
			steps: []step{
				{0, accept("alice", 0.62), KindGranted, true, false, Unlocked},
				{10, accept("bob", 0.5), KindGranted, true, true, Unlocked},
			},
		},
		{
			name: "relock happens before a rejected decision",
			steps: []step{
				{0, accept("alice", 0.62), KindGranted, true, false, Unlocked},
				{11, reject(0.1), KindDenied, false, true, Locked},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(timing)
			for i, s := range tt.steps {
				tr := m.Step(at(s.at), s.decision)
				if tr.Kind != s.kind {
					t.Errorf("step %d: expected kind %s, got %s", i, s.kind, tr.Kind)
				}
				if tr.Command != s.command {
					t.Errorf("step %d: expected command=%v, got %v", i, s.command, tr.Command)
				}
				if tr.Relocked != s.relocked {
					t.Errorf("step %d: expected relocked=%v, got %v", i, s.relocked, tr.Relocked)
				}
				if got := m.State().Lock; got != s.lock {
					t.Errorf("step %d: expected %s, got %s", i, s.lock, got)
				}
			}
		})
	}
}

func TestMachine_DeadlinesOnGrant(t *testing.T) {
	m := NewMachine(Timing{CooldownPeriod: 30 * time.Second, UnlockDuration: 5 * time.Second})
	m.Step(at(2), accept("alice", 0.8))

	s := m.State()
	if !s.UnlockDeadline.Equal(at(7)) {
		t.Errorf("expected unlock deadline t+5s, got %v", s.UnlockDeadline)
	}
	if !s.CooldownDeadline.Equal(at(32)) {
		t.Errorf("expected cooldown deadline t+30s, got %v", s.CooldownDeadline)
	}

	// Relocked while still cooling down: lock and cooldown are independent.
	tr := m.Step(at(8), accept("alice", 0.8))
	if !tr.Relocked || tr.Kind != KindSuppressed || m.State().Lock != Locked {
		t.Errorf("expected relock then suppression, got %+v in %s", tr, m.State().Lock)
	}
	if !m.State().UnlockDeadline.IsZero() {
		t.Error("unlock deadline must be cleared on relock")
	}
}

func TestMachine_UnlockedImpliesDeadline(t *testing.T) {
	m := NewMachine(timing)
	decisions := []*facematch.Decision{
		accept("a", 0.9), nil, reject(0.1), accept("b", 0.7), nil, nil, accept("c", 0.5),
	}
	for i, d := range decisions {
		now := at(float64(i) * 4)
		m.Step(now, d)
		s := m.State()
		if s.Lock == Unlocked && s.UnlockDeadline.Before(now) {
			t.Fatalf("cycle %d: unlocked with deadline %v before %v", i, s.UnlockDeadline, now)
		}
		if s.Lock == Unlocked && s.UnlockDeadline.IsZero() {
			t.Fatalf("cycle %d: unlocked without deadline", i)
		}
	}
}
