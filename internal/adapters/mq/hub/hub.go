// Package hub fans visible-set updates out to subscriber queues.
package hub

import (
	"context"
	"sync"

	"github.com/okian/pacegrid/internal/adapters/mq/queue"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/pkg/metrics"
)

// Hub is a publish/subscribe fan-out. A slow subscriber loses updates
// instead of blocking the publisher.
type Hub struct {
	mu        sync.RWMutex
	subs      map[uint64]*queue.InMemoryQueue
	nextID    uint64
	closed    bool
	queueOpts []queue.Option
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueCapacity sets the buffer size of each subscriber queue.
func WithQueueCapacity(n int) Option {
	return func(h *Hub) {
		h.queueOpts = append(h.queueOpts, queue.WithCapacity(n))
	}
}

// New creates a hub.
func New(opts ...Option) *Hub {
	h := &Hub{subs: make(map[uint64]*queue.InMemoryQueue)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber. The returned func unsubscribes
// and closes the queue.
func (h *Hub) Subscribe() (*queue.InMemoryQueue, func()) {
	q := queue.NewInMemoryQueue(h.queueOpts...)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = q.Close()
		return q, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = q
	n := len(h.subs)
	h.mu.Unlock()
	metrics.UpdateHubSubscribers(n)

	var once sync.Once
	return q, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			n := len(h.subs)
			h.mu.Unlock()
			_ = q.Close()
			metrics.UpdateHubSubscribers(n)
		})
	}
}

// Publish delivers u to every subscriber and returns how many accepted it.
func (h *Hub) Publish(ctx context.Context, u model.Update) int { //nolint:gocritic // hugeParam: copied per subscriber
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, q := range h.subs {
		if q.Enqueue(ctx, u) {
			delivered++
			metrics.RecordHubDelivered()
			continue
		}
		metrics.RecordHubDropped()
	}
	return delivered
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscriber queue. Later subscriptions get a closed
// queue.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, q := range h.subs {
		_ = q.Close()
		delete(h.subs, id)
	}
	metrics.UpdateHubSubscribers(0)
}
