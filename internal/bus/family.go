package bus

import "github.com/fates3gx/sdk/internal/queue"

// Handler receives one context snapshot by value.
type Handler[C any] func(C)

// Family is the bounded subscriber list of one event family. Subscriptions
// are permanent.
type Family[C any] struct {
	name  string
	slots *queue.Bounded[Handler[C]]
}

// NewFamily creates a family holding at most capacity handlers.
func NewFamily[C any](name string, capacity int) *Family[C] {
	return &Family[C]{name: name, slots: queue.NewBounded[Handler[C]](capacity)}
}

// Register appends fn. It fails for a nil fn or a full family.
func (f *Family[C]) Register(fn Handler[C]) bool {
	if fn == nil {
		return false
	}
	return f.slots.Add(fn)
}

// Dispatch calls every handler in registration order on the calling
// goroutine. A panicking handler is not isolated. It returns the number of
// handlers called.
func (f *Family[C]) Dispatch(ctx C) int {
	f.slots.Each(func(h Handler[C]) { h(ctx) })
	return f.slots.Len()
}

// Name returns the family name.
func (f *Family[C]) Name() string { return f.name }

// Len returns the number of registered handlers.
func (f *Family[C]) Len() int { return f.slots.Len() }

// Cap returns the fixed capacity.
func (f *Family[C]) Cap() int { return f.slots.Cap() }
