package actuator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Opener opens the raw channel. The default opens a serial port in 8N1 mode.
type Opener func(port string, baud int) (io.WriteCloser, error)

func openSerial(port string, baud int) (io.WriteCloser, error) {
	return serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

// SerialConfig describes the serial lock channel.
type SerialConfig struct {
	Port    string
	Baud    int
	Token   byte
	Timeout time.Duration
	Settle  time.Duration
}

// SerialOption configures OpenSerial.
type SerialOption func(*SerialGateway)

// WithOpener replaces the function that opens the port.
func WithOpener(open Opener) SerialOption {
	return func(g *SerialGateway) {
		g.open = open
	}
}

// WithLogger sets the logger for write failures.
func WithLogger(logger *slog.Logger) SerialOption {
	return func(g *SerialGateway) {
		g.logger = logger
	}
}

// SerialGateway writes the unlock token to a serial port.
type SerialGateway struct {
	cfg    SerialConfig
	open   Opener
	logger *slog.Logger

	mu      sync.Mutex
	port    io.WriteCloser
	pending bool
	closed  bool
	lastErr error
}

// OpenSerial opens the port and waits cfg.Settle before returning, since the
// controller board resets when the port is opened. Cancelling ctx during the
// settle wait closes the port and returns the context error.
func OpenSerial(ctx context.Context, cfg SerialConfig, opts ...SerialOption) (*SerialGateway, error) {
	g := &SerialGateway{
		cfg:    cfg,
		open:   openSerial,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	port, err := g.open(cfg.Port, cfg.Baud)
	if err != nil {
		return nil, fmt.Errorf("opening %s at %d baud: %w", cfg.Port, cfg.Baud, err)
	}
	g.port = port

	if cfg.Settle > 0 {
		timer := time.NewTimer(cfg.Settle)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			_ = port.Close()
			return nil, ctx.Err()
		}
	}

	g.logger.Info("actuator connected", "port", cfg.Port, "baud", cfg.Baud)
	return g, nil
}

// SendUnlock implements Gateway.
//
// A ctx that is already done fails with ErrTimeout before anything is written.
// Once started, the write is bounded only by the configured timeout. It runs in
// its own goroutine; if it outlives the timeout the call returns ErrTimeout and
// later calls return ErrBusy until the write finishes, so two tokens are never
// in flight at once.
func (g *SerialGateway) SendUnlock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrChannelUnavailable
	}
	if g.pending {
		g.mu.Unlock()
		return ErrBusy
	}
	g.pending = true
	port := g.port
	g.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		n, err := port.Write([]byte{g.cfg.Token})
		if err == nil && n != 1 {
			err = io.ErrShortWrite
		}
		g.mu.Lock()
		g.pending = false
		g.mu.Unlock()
		done <- err
	}()

	timer := time.NewTimer(g.cfg.Timeout)
	defer timer.Stop()

	var err error
	select {
	case werr := <-done:
		if werr != nil {
			err = fmt.Errorf("%w: %w", ErrChannelUnavailable, werr)
		}
	case <-timer.C:
		err = ErrTimeout
	}

	g.mu.Lock()
	g.lastErr = err
	g.mu.Unlock()
	if err != nil {
		g.logger.Warn("unlock command failed", "port", g.cfg.Port, "error", err)
	}
	return err
}

// Health implements Gateway.
func (g *SerialGateway) Health() Health {
	g.mu.Lock()
	defer g.mu.Unlock()
	h := Health{Connected: !g.closed, Channel: g.cfg.Port}
	if g.lastErr != nil {
		h.LastError = g.lastErr.Error()
	}
	return h
}

// Close releases the port. It is safe to call more than once.
func (g *SerialGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.port.Close()
}
