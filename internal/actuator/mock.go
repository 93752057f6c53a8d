package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGateway is an in-memory Gateway for tests. It records every token that
// would have reached the lock and supports error injection and latency.
type MockGateway struct {
	token   byte
	timeout time.Duration
	latency time.Duration
	sendErr error

	mu     sync.Mutex
	sent   []byte
	closed bool
}

// MockOption configures a MockGateway.
type MockOption func(*MockGateway)

// WithSendError makes every SendUnlock fail with err.
func WithSendError(err error) MockOption {
	return func(m *MockGateway) {
		m.sendErr = err
	}
}

// WithLatency delays each send. A latency longer than the timeout yields ErrTimeout.
func WithLatency(latency, timeout time.Duration) MockOption {
	return func(m *MockGateway) {
		m.latency = latency
		m.timeout = timeout
	}
}

// NewMockGateway creates a connected mock that records the default 'D' token.
func NewMockGateway(opts ...MockOption) *MockGateway {
	m := &MockGateway{token: 'D'}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendUnlock implements Gateway.
func (m *MockGateway) SendUnlock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	m.mu.Lock()
	closed, err := m.closed, m.sendErr
	m.mu.Unlock()

	if closed {
		return ErrChannelUnavailable
	}
	if err != nil {
		return err
	}
	if m.timeout > 0 && m.latency > m.timeout {
		return ErrTimeout
	}
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return ErrTimeout
		}
	}

	m.mu.Lock()
	m.sent = append(m.sent, m.token)
	m.mu.Unlock()
	return nil
}

// SetSendError changes the injected error between sends.
func (m *MockGateway) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// Sent returns a copy of the tokens written so far.
func (m *MockGateway) Sent() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.sent))
	copy(out, m.sent)
	return out
}

// SendCount returns the number of successful sends.
func (m *MockGateway) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// Health implements Gateway.
func (m *MockGateway) Health() Health {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := Health{Connected: !m.closed, Channel: "mock"}
	if m.sendErr != nil {
		h.LastError = m.sendErr.Error()
	}
	return h
}

// Close implements Gateway.
func (m *MockGateway) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
