// Package actuator drives the door lock over a byte-oriented command channel.
package actuator

import (
	"context"
	"errors"
)

var (
	// ErrChannelUnavailable is returned when the channel is closed, was never
	// opened, or the write itself failed.
	ErrChannelUnavailable = errors.New("actuator channel unavailable")
	// ErrTimeout is returned when a write does not complete in time.
	ErrTimeout = errors.New("actuator write timed out")
	// ErrBusy is returned while an earlier timed-out write is still pending.
	ErrBusy = errors.New("actuator busy")
)

// Gateway sends unlock commands to the lock.
type Gateway interface {
	// SendUnlock writes the unlock token once. It never blocks longer than the
	// gateway's timeout.
	SendUnlock(ctx context.Context) error
	Health() Health
	Close() error
}

// Health is a point-in-time view of the channel for the operator surface.
type Health struct {
	Connected bool   `json:"connected"`
	Channel   string `json:"channel,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Disconnected is the gateway used when no channel could be opened.
// Every send fails with ErrChannelUnavailable.
type Disconnected struct {
	Channel string
	Reason  error
}

// SendUnlock implements Gateway.
func (d *Disconnected) SendUnlock(ctx context.Context) error {
	if d.Reason != nil {
		return errors.Join(ErrChannelUnavailable, d.Reason)
	}
	return ErrChannelUnavailable
}

// Health implements Gateway.
func (d *Disconnected) Health() Health {
	h := Health{Channel: d.Channel}
	if d.Reason != nil {
		h.LastError = d.Reason.Error()
	}
	return h
}

// Close implements Gateway.
func (d *Disconnected) Close() error {
	return nil
}
