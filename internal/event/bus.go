package event

import (
	"log/slog"
	"sync"
)

type HandlerFunc func(raw any)

// Bus delivers events synchronously on the publishing goroutine, in
// subscription order. A panicking handler is logged and does not stop the
// remaining handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFunc
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]HandlerFunc),
	}
}

func (b *Bus) Subscribe(eventName string, handler HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// SubscribeMany registers the same handler under several event names.
func (b *Bus) SubscribeMany(names []string, handler func(name string, evt any)) {
	for _, name := range names {
		b.Subscribe(name, func(evt any) { handler(name, evt) })
	}
}

func (b *Bus) Publish(eventName string, evt any) {
	b.mu.RLock()
	handlers := make([]HandlerFunc, len(b.handlers[eventName]))
	copy(handlers, b.handlers[eventName])
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.call(eventName, handler, evt)
	}
}

func (b *Bus) call(eventName string, h HandlerFunc, evt any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Event handler panicked", "event", eventName, "panic", r)
		}
	}()
	h(evt)
}
