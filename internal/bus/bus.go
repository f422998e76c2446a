// Package bus implements the change notification registry that lets views
// and caches react to record store mutations without polling.
package bus

import (
	"log/slog"
	"sync"

	"github.com/florinapp/florin/internal/model"
)

// Bus maps entity kinds to subscriber callbacks. Events carry no payload:
// subscribers re-read current state through the store, so the bus is a pure
// invalidation signal, not an event log.
type Bus struct {
	subs   map[model.Kind][]*subscriber
	mu     sync.Mutex
	nextID int64
}

type subscriber struct {
	fn func()
	id int64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		subs: make(map[model.Kind][]*subscriber),
	}
}

// Subscribe registers fn for change events on kind and returns an
// unsubscribe function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(kind model.Kind, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{id: b.nextID, fn: fn}
	b.subs[kind] = append(b.subs[kind], sub)

	id := sub.id
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[kind]
		for i, s := range list {
			if s.id == id {
				b.subs[kind] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish invokes every current subscriber for kind synchronously, in
// registration order. A panicking subscriber is logged and skipped so one
// misbehaving view cannot block the others.
func (b *Bus) Publish(kind model.Kind) {
	b.mu.Lock()
	list := make([]*subscriber, len(b.subs[kind]))
	copy(list, b.subs[kind])
	b.mu.Unlock()

	for _, sub := range list {
		b.invoke(kind, sub)
	}
}

func (b *Bus) invoke(kind model.Kind, sub *subscriber) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("change subscriber panicked", "kind", kind, "panic", r)
		}
	}()
	sub.fn()
}
