package queue

// Bounded is a fixed-capacity, append-only collection. Add fails once the
// collection is full; it never grows and never evicts. Bounded is not safe
// for concurrent use.
type Bounded[T any] struct {
	items []T
}

// NewBounded allocates a collection that holds at most capacity items.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Bounded[T]{items: make([]T, 0, capacity)}
}

// Add appends v. It returns false, leaving the collection untouched, when full.
func (b *Bounded[T]) Add(v T) bool {
	if len(b.items) == cap(b.items) {
		return false
	}
	b.items = append(b.items, v)
	return true
}

// Len returns the number of stored items.
func (b *Bounded[T]) Len() int { return len(b.items) }

// Cap returns the fixed capacity.
func (b *Bounded[T]) Cap() int { return cap(b.items) }

// Full reports whether Add would fail.
func (b *Bounded[T]) Full() bool { return len(b.items) == cap(b.items) }

// At returns the i-th item in insertion order.
func (b *Bounded[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(b.items) {
		var zero T
		return zero, false
	}
	return b.items[i], true
}

// Each calls fn for every item in insertion order.
func (b *Bounded[T]) Each(fn func(T)) {
	for _, v := range b.items {
		fn(v)
	}
}

// Snapshot returns a copy of the stored items.
func (b *Bounded[T]) Snapshot() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Reset empties the collection, keeping its capacity.
func (b *Bounded[T]) Reset() {
	clear(b.items)
	b.items = b.items[:0]
}
