package stream

import (
	"log/slog"
	"sync"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events rather than stalling the hub.
const subscriberBuffer = 16

// Hub fans saga events out to connected stream subscribers. Broadcasting
// never blocks: slow subscribers drop events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan []byte]struct{}
	logger      *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan []byte]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber and returns its event channel along
// with an unsubscribe function. The unsubscribe function is idempotent.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			h.mu.Unlock()
			close(ch)
		})
	}

	return ch, unsubscribe
}

// Broadcast delivers the message to every subscriber without blocking.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- message:
		default:
			h.logger.Warn("dropping event for slow stream subscriber")
		}
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
