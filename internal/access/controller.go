package access

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/facegate/internal/actuator"
	"github.com/kozaktomas/facegate/internal/audit"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/gallery"
)

// Matcher finds the best identity for a face. *facematch.Matcher satisfies it.
type Matcher interface {
	Score(face facematch.Image, identities []facematch.Identity) facematch.MatchResult
}

// Outcome describes one completed cycle.
type Outcome struct {
	At            time.Time           `json:"at"`
	Kind          Kind                `json:"kind"`
	Decision      *facematch.Decision `json:"decision,omitempty"`
	Relocked      bool                `json:"relocked"`
	Command       bool                `json:"command"`
	ActuatorError string              `json:"actuator_error,omitempty"`
	State         Snapshot            `json:"-"`
}

// Snapshot is a read-only view of the controller for the operator surface.
type Snapshot struct {
	Lock              LockState
	UnlockRemaining   time.Duration
	CooldownRemaining time.Duration
	LastDecision      *facematch.Decision
	LastDecisionAt    time.Time
	Threshold         float64
	GallerySize       int
	Actuator          actuator.Health
}

// Config holds the decision threshold and timing.
type Config struct {
	Threshold float64
	Timing    Timing
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithEmitter sets the audit sink.
func WithEmitter(e audit.Emitter) Option {
	return func(c *Controller) {
		c.emitter = e
	}
}

// WithMatcher replaces the default histogram matcher.
func WithMatcher(m Matcher) Option {
	return func(c *Controller) {
		c.matcher = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller runs access cycles. Every cycle holds the controller lock from
// matching through the audit event, so cycles from the HTTP ingress and the
// re-lock ticker never interleave.
type Controller struct {
	mu      sync.Mutex
	cfg     Config
	machine *Machine
	gallery *gallery.Gallery
	matcher Matcher
	gateway actuator.Gateway
	emitter audit.Emitter
	clock   Clock
	logger  *slog.Logger

	last   *facematch.Decision
	lastAt time.Time
}

// NewController creates a controller in the Locked state. A nil gateway runs
// in decision-and-audit-only mode; a nil gallery rejects every face.
func NewController(cfg Config, g *gallery.Gallery, gw actuator.Gateway, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		machine: NewMachine(cfg.Timing),
		gallery: g,
		matcher: facematch.NewMatcher(nil),
		gateway: gw,
		emitter: audit.Nop{},
		clock:   SystemClock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gateway == nil {
		c.gateway = &actuator.Disconnected{}
	}
	return c
}

// Process evaluates one observed face.
func (c *Controller) Process(ctx context.Context, face facematch.Image) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.clock.Now()
	result := c.matcher.Score(face, c.gallery.Identities())
	d := facematch.Decide(result, c.cfg.Threshold)
	return c.cycle(ctx, t, &d)
}

// Tick runs a cycle without a face, which only re-locks an expired unlock.
func (c *Controller) Tick(ctx context.Context) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle(ctx, c.clock.Now(), nil)
}

// Status returns the current snapshot without running a cycle.
func (c *Controller) Status() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(c.clock.Now())
}

// Gallery returns the gallery the controller matches against.
func (c *Controller) Gallery() *gallery.Gallery {
	return c.gallery
}

// cycle commits the transition before any side effect, so the send and the
// audit events run detached from the caller's cancellation. The gateway's own
// timeout bounds the send.
func (c *Controller) cycle(ctx context.Context, t time.Time, d *facematch.Decision) Outcome {
	ctx = context.WithoutCancel(ctx)
	cooldownRemaining := c.cooldownRemaining(t)
	tr := c.machine.Step(t, d)
	out := Outcome{At: t, Kind: tr.Kind, Decision: d, Relocked: tr.Relocked, Command: tr.Command}

	if tr.Relocked {
		c.emit(ctx, audit.Relocked(t))
	}
	if d != nil {
		c.last = d
		c.lastAt = t
	}

	switch tr.Kind {
	case KindGranted:
		err := c.gateway.SendUnlock(ctx)
		c.emit(ctx, audit.Granted(d.Label, d.Score, t))
		if err != nil {
			out.ActuatorError = err.Error()
			c.emit(ctx, audit.ActuatorUnreachable(d.Label, err, t))
		}
	case KindSuppressed:
		c.emit(ctx, audit.Suppressed(d.Label, d.Score, cooldownRemaining, t))
	case KindDenied:
		c.emit(ctx, audit.Denied(d.Score, t))
	}

	out.State = c.snapshot(t)
	return out
}

func (c *Controller) emit(ctx context.Context, e audit.Event) {
	if err := c.emitter.Emit(ctx, e); err != nil {
		c.logger.Error("failed to emit audit event", "type", e.Type, "error", err)
	}
}

func (c *Controller) cooldownRemaining(t time.Time) time.Duration {
	if !c.machine.InCooldown(t) {
		return 0
	}
	return c.machine.State().CooldownDeadline.Sub(t)
}

func (c *Controller) snapshot(t time.Time) Snapshot {
	s := c.machine.State()
	snap := Snapshot{
		Lock:              s.Lock,
		CooldownRemaining: c.cooldownRemaining(t),
		LastDecisionAt:    c.lastAt,
		Threshold:         c.cfg.Threshold,
		GallerySize:       c.gallery.Len(),
		Actuator:          c.gateway.Health(),
	}
	if s.Lock == Unlocked {
		snap.UnlockRemaining = max(0, s.UnlockDeadline.Sub(t))
	}
	if c.last != nil {
		d := *c.last
		snap.LastDecision = &d
	}
	return snap
}
