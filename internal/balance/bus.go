// Package balance carries token balance updates from whoever computes them
// to whoever displays them, without either side knowing about the other.
package balance

import "sync"

// Bus is a typed, process-wide balance channel. Handlers are called
// synchronously on the publishing goroutine, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []handlerEntry
	nextID   int64
}

type handlerEntry struct {
	id      int64
	handler func(amount float64)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Publish delivers amount to every current subscriber. The value is not
// validated.
func (b *Bus) Publish(amount float64) {
	b.mu.RLock()
	handlers := make([]handlerEntry, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	// Notify handlers outside the lock
	for _, h := range handlers {
		h.handler(amount)
	}
}

// Subscribe registers fn and returns a function that removes it. The
// returned function may be called more than once.
func (b *Bus) Subscribe(fn func(amount float64)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, handlerEntry{id: id, handler: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, h := range b.handlers {
			if h.id == id {
				b.handlers = append(b.handlers[:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Len reports the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
