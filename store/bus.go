package store

import (
	"log/slog"
	"sync"

	"github.com/gameport/arena/metrics"
)

// Handler receives the latest snapshot at a subscribed path.
type Handler func(snap Snapshot)

// ChangeBus fans a published snapshot out to every subscriber registered for
// exactly that path. No prefix or wildcard matching. Delivery is synchronous
// in the publisher's goroutine, so within one process subscribers observe
// writes to a path in issue order.
type ChangeBus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]Handler
}

func NewChangeBus(logger *slog.Logger) *ChangeBus {
	return &ChangeBus{
		logger: logger,
		subs:   make(map[string]map[int]Handler),
	}
}

// Subscribe registers handler for path and returns its unsubscribe func.
// Unsubscribing twice is harmless.
func (b *ChangeBus) Subscribe(path string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[path]; !ok {
		b.subs[path] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[path][id] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.subs[path]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.subs, path)
			}
		}
	}
}

// Publish delivers snap to every current subscriber of path. A panicking
// handler is recovered and logged so it cannot block delivery to the rest.
func (b *ChangeBus) Publish(path string, snap Snapshot) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[path]))
	for _, h := range b.subs[path] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	metrics.BusPublishes.Inc()

	for _, h := range handlers {
		b.deliver(path, h, snap)
	}
}

func (b *ChangeBus) deliver(path string, handler Handler, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			metrics.BusHandlerPanics.Inc()
			b.logger.Error("change handler panicked",
				slog.String("path", path),
				slog.Any("panic", r),
			)
		}
	}()
	handler(snap)
}
