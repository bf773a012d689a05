package eventbus

import (
	"log/slog"
	"sync"
)

// Event is the name handlers are registered under.
type Event string

// Handler wraps a callback. Handlers are compared by pointer, so the owner of
// a subscription must keep the *Handler it registered and pass the same value
// to Off.
type Handler struct {
	fn func(args ...any)
}

// NewHandler returns a handler with a stable identity for use with On and Off.
func NewHandler(fn func(args ...any)) *Handler {
	return &Handler{fn: fn}
}

// Bus is an in-memory publish/subscribe registry keyed by event name. The zero
// value is not usable, use New.
type Bus struct {
	// handlers per event, kept in registration order
	handlers map[Event][]*Handler
	mu       sync.RWMutex

	logger *slog.Logger
}

func New() *Bus {
	return &Bus{
		handlers: make(map[Event][]*Handler),
		logger:   slog.Default(),
	}
}

// On registers h under event. Registering the same handler twice has no
// effect.
func (b *Bus) On(event Event, h *Handler) {
	if h == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.handlers[event] {
		if existing == h {
			return
		}
	}
	b.handlers[event] = append(b.handlers[event], h)
}

// Off removes h from event. Removing a handler which was never registered is
// a no-op.
func (b *Bus) Off(event Event, h *Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hs := b.handlers[event]
	for i, existing := range hs {
		if existing == h {
			b.handlers[event] = append(hs[:i:i], hs[i+1:]...)
			break
		}
	}
	if len(b.handlers[event]) == 0 {
		delete(b.handlers, event)
	}
}

// Emit synchronously invokes every handler currently registered for event in
// registration order. A panicking handler is logged and does not stop
// delivery to the remaining handlers.
func (b *Bus) Emit(event Event, args ...any) {
	b.mu.RLock()
	// Copy so handlers can call On/Off while we deliver
	hs := make([]*Handler, len(b.handlers[event]))
	copy(hs, b.handlers[event])
	b.mu.RUnlock()

	for _, h := range hs {
		b.invoke(event, h, args)
	}
}

func (b *Bus) invoke(event Event, h *Handler, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				slog.String("event", string(event)),
				slog.Any("panic", r),
			)
		}
	}()
	h.fn(args...)
}

// Count returns the number of handlers registered for event.
func (b *Bus) Count(event Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}
