// Package events is the in-process event dispatcher for form engine
// lifecycle notifications. A Bus is instance-scoped: each engine owns one,
// passed explicitly, so two forms in a process never observe each other.
package events

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

// entry carries an id because closures cannot be compared; removal goes by
// the id handed out at subscribe time.
type entry struct {
	id uint64
	fn func(context.Context, any)
}

// Bus dispatches events to subscribers by event type.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[reflect.Type][]entry
}

// New creates a new Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]entry)} }

func (b *Bus) subscribe(t reflect.Type, fn func(context.Context, any)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], entry{id: id, fn: fn})
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[t]
		for i := range hs {
			if hs[i].id == id {
				hs = append(hs[:i], hs[i+1:]...)
				break
			}
		}
		if len(hs) == 0 {
			delete(b.handlers, t)
		} else {
			b.handlers[t] = hs
		}
	}
}

// emit dispatches e to all handlers of its dynamic type.
func (b *Bus) emit(ctx context.Context, e any) {
	if b == nil {
		return
	}
	t := reflect.TypeOf(e)
	b.mu.RLock()
	hs := b.handlers[t]
	if len(hs) == 0 {
		b.mu.RUnlock()
		return
	}
	copied := append([]entry(nil), hs...)
	b.mu.RUnlock()
	for _, en := range copied {
		en.fn(ctx, e)
	}
}

// Subscribe registers h on the bus. A nil bus accepts the call and never
// delivers; the returned func removes the subscription and is safe to call
// more than once.
func Subscribe[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.subscribe(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish sends e to the bus's subscribers. Publishing to a nil bus is a
// no-op, so emit sites need no guards.
func Publish[T any](ctx context.Context, b *Bus, e T) {
	b.emit(ctx, e)
}
