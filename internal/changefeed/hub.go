package changefeed

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber buffer used when Subscribe gets a non-positive size.
const DefaultBuffer = 16

// Hub fans events out to subscriptions in process.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Subscription is a handle on a stream of events. Close it when done.
type Subscription struct {
	hub     *Hub
	ch      chan Event
	once    sync.Once
	dropped atomic.Uint64
}

// Subscribe registers a new subscription with the given buffer size.
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{hub: h, ch: make(chan Event, buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Publish delivers event to every subscription without blocking. A
// subscription whose buffer is full misses the event.
func (h *Hub) Publish(_ context.Context, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
		}
	}
}

// Len reports the number of open subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription. Later subscriptions start closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		delete(h.subs, sub)
		sub.once.Do(func() { close(sub.ch) })
	}
}

// C returns the channel of events. It is closed after Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close detaches the subscription from its hub and closes C.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	delete(s.hub.subs, s)
	s.hub.mu.Unlock()
	s.once.Do(func() { close(s.ch) })
}

// Dropped reports how many events the subscription missed because its buffer was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}
