package audit

import (
	"context"
	"slices"
	"sync"

	"github.com/kozaktomas/facegate/internal/constants"
)

// Broadcaster delivers events to live listeners (the SSE stream) and keeps
// the most recent ones for clients that connect later.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners []chan Event
	recent    []Event
	limit     int
}

// NewBroadcaster creates a broadcaster retaining the last limit events.
// A non-positive limit uses constants.RecentEventsLimit.
func NewBroadcaster(limit int) *Broadcaster {
	if limit <= 0 {
		limit = constants.RecentEventsLimit
	}
	return &Broadcaster{limit: limit}
}

// AddListener registers a buffered listener channel.
func (b *Broadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes ch.
func (b *Broadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Emit implements Emitter. Slow listeners lose events rather than block the cycle.
func (b *Broadcaster) Emit(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.recent = append(b.recent, event)
	if len(b.recent) > b.limit {
		b.recent = slices.Delete(b.recent, 0, len(b.recent)-b.limit)
	}

	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
	return nil
}

// Recent returns retained events, oldest first.
func (b *Broadcaster) Recent() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.recent)
}
