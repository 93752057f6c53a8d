package handlers

import (
	"net/http"

	"github.com/kozaktomas/facegate/internal/audit"
)

// EventsHandler streams audit events over SSE.
type EventsHandler struct {
	broadcaster *audit.Broadcaster
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(b *audit.Broadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: b}
}

// Stream replays recent events, then sends each new event until the client
// disconnects. A known Last-Event-ID skips the replay up to and including that event.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribe before replaying so nothing emitted in between is lost.
	eventCh := h.broadcaster.AddListener()
	defer h.broadcaster.RemoveListener(eventCh)

	recent := h.broadcaster.Recent()
	seen := make(map[string]bool, len(recent))
	for _, e := range recent {
		seen[e.ID.String()] = true
	}
	if lastID := r.Header.Get("Last-Event-ID"); lastID != "" {
		for i, e := range recent {
			if e.ID.String() == lastID {
				recent = recent[i+1:]
				break
			}
		}
	}
	for _, e := range recent {
		if err := writeAuditEvent(w, flusher, e); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if seen[event.ID.String()] {
				continue
			}
			if err := writeAuditEvent(w, flusher, event); err != nil {
				return
			}
		}
	}
}
