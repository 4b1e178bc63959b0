package pubsub

import (
	"sync"

	"github.com/Wiltron289/Next-Best-ActionV2/internal/types"
)

// Subscriber receives context changes published on the bus
type Subscriber func(types.ContextChange)

// Bus is a non-blocking in-process fan-out for context changes.
// Delivery is asynchronous through buffered channels; a subscriber
// that falls behind loses events rather than stalling the publisher.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan types.ContextChange
	bufferSize  int
}

// NewBus creates a bus with the given per-subscriber buffer size
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{bufferSize: bufferSize}
}

// Subscribe registers fn and returns its unsubscribe function
func (b *Bus) Subscribe(fn Subscriber) func() {
	b.mu.Lock()
	ch := make(chan types.ContextChange, b.bufferSize)
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	go func() {
		for change := range ch {
			fn(change)
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subscribers {
			if sub == ch {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

// Publish delivers the change to every subscriber without blocking
func (b *Bus) Publish(change types.ContextChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- change:
		default:
		}
	}
}
