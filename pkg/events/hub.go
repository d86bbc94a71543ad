package events

import (
	"sync"

	"audio-ingest/dto"
)

// DefaultExchange is the fanout exchange change events travel through when
// the config does not name one.
const DefaultExchange = "recordings_events"

const subscriberBuffer = 16

// Hub fans change events out to in-process subscribers, one buffered
// channel each. A subscriber that falls behind loses events rather than
// blocking the rest; clients are expected to full-reload after a gap or
// reconnect.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan dto.ChangeEvent
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan dto.ChangeEvent),
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release the subscription.
func (h *Hub) Subscribe() (<-chan dto.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan dto.ChangeEvent, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Broadcast delivers event to every subscriber with room in its buffer.
func (h *Hub) Broadcast(event dto.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
