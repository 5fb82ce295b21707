// Package event is a synchronous in-process event dispatcher.
package event

import (
	"context"
	"sync"
)

// Event is anything with a name listeners can subscribe to.
type Event interface {
	Name() string
}

// Handler receives a dispatched event.
type Handler func(ctx context.Context, e Event)

// Bus maps event names to listeners. The zero value is ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Listen registers handler for events named name.
func (b *Bus) Listen(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[name] = append(b.handlers[name], handler)
}

// Fire calls every listener of e in registration order. A nil Bus drops
// the event.
func (b *Bus) Fire(ctx context.Context, e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := make([]Handler, len(b.handlers[e.Name()]))
	copy(hs, b.handlers[e.Name()])
	b.mu.RUnlock()

	for _, h := range hs {
		h(ctx, e)
	}
}
