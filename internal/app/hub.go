package app

import (
	"sync"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

// Hub fans session snapshots out to connected subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Snapshot]struct{}
	last map[string]int64
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan domain.Snapshot]struct{}),
		last: make(map[string]int64),
	}
}

// Subscribe returns a channel that receives snapshots for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(sessionID string) (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[chan domain.Snapshot]struct{})
		h.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[sessionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, sessionID)
				delete(h.last, sessionID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers snap to every subscriber of its session. Snapshots older
// than one already published are dropped, since publishes happen outside the
// session lock and may race. Sessions without subscribers, including closed
// ones, keep no state.
func (h *Hub) Publish(snap domain.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.subs[snap.SessionID]) == 0 {
		return
	}
	if snap.Version <= h.last[snap.SessionID] {
		return
	}
	h.last[snap.SessionID] = snap.Version
	for ch := range h.subs[snap.SessionID] {
		select {
		case ch <- snap:
		default:
			// drop the oldest queued snapshot so slow readers never block publishers
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// Close ends every subscription of an evicted session.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
	delete(h.last, sessionID)
}

// tracked reports how many sessions hold publish state.
func (h *Hub) tracked() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.last)
}
