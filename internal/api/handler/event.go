package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/camroll/camroll/internal/catalog"
)

// Event is one entry on the server-sent event stream.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
	Processed int       `json:"processed,omitempty"`
	Total     int       `json:"total,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// EventHub fans export events out to SSE subscribers. Publishing never
// blocks; a slow subscriber loses events rather than stalling the run.
type EventHub struct {
	mu     sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a listener and returns its ID and channel.
func (h *EventHub) Subscribe() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	ch := make(chan Event, 16)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *EventHub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Publish delivers an event to every subscriber that can take it.
func (h *EventHub) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// EventHandler streams export and library events over SSE.
type EventHandler struct {
	hub     *EventHub
	library catalog.Notifier
	logger  *slog.Logger
}

// NewEventHandler creates a new event handler. library may be nil when
// no catalog change feed is available.
func NewEventHandler(hub *EventHub, library catalog.Notifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{hub: hub, library: library, logger: logger}
}

// Stream handles GET /api/v1/events
// Server-Sent Events endpoint for real-time export progress.
func (h *EventHandler) Stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	subID, eventCh := h.hub.Subscribe()
	defer h.hub.Unsubscribe(subID)

	var libraryCh <-chan struct{}
	if h.library != nil {
		var libID uint64
		libID, libraryCh = h.library.Subscribe()
		defer h.library.Unsubscribe(libID)
	}

	h.logger.Info("SSE client connected", "subscriber_id", subID, "remote_addr", r.RemoteAddr)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\": %d}\n\n", subID)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "subscriber_id", subID)
			return

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Warn("failed to serialize event", "type", ev.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()

		case <-libraryCh:
			data, _ := json.Marshal(Event{Type: "library_changed", Timestamp: time.Now().UTC()})
			fmt.Fprintf(w, "event: library_changed\ndata: %s\n\n", data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
