// Package sink fans finalized sign results out to independent consumers.
package sink

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/lsainterp/internal/fusion"
	"github.com/ayusman/lsainterp/internal/metrics"
)

// DefaultBuffer is the channel capacity used when Subscribe is given zero.
const DefaultBuffer = 16

// Subscription receives results published to a Hub.
type Subscription struct {
	name string
	ch   chan fusion.Result
	C    <-chan fusion.Result
}

// Name returns the subscriber name used in logs and metrics.
func (s *Subscription) Name() string {
	return s.name
}

// Hub delivers each published result to every subscription without blocking
// the publisher. Subscribers should be attached before publishing starts.
type Hub struct {
	mu      sync.RWMutex
	subs    []*Subscription
	closed  bool
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger, metrics: m}
}

// Subscribe attaches a consumer with the given buffer size.
func (h *Hub) Subscribe(name string, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan fusion.Result, buffer)
	sub := &Subscription{name: name, ch: ch, C: ch}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return sub
	}
	h.subs = append(h.subs, sub)
	return sub
}

// Publish offers r to every subscriber. A subscriber whose buffer is full
// misses r; the drop is counted.
func (h *Hub) Publish(r fusion.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, sub := range h.subs {
		select {
		case sub.ch <- r:
		default:
			h.metrics.SinkDropped(sub.name)
			h.logger.Warn("sink buffer full, dropping result",
				zap.String("sink", sub.name),
				zap.String("sign", r.Sign))
		}
	}
}

// Close closes every subscription channel. Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		close(sub.ch)
	}
}

// Run calls fn for each result received on sub until ctx is done or the
// subscription is closed.
func Run(ctx context.Context, sub *Subscription, fn func(fusion.Result)) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-sub.C:
			if !ok {
				return
			}
			fn(r)
		}
	}
}
