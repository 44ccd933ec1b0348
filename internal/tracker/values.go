package tracker

import "github.com/fates3gx/sdk/pkg/core"

// Values is a map-scoped table of the last observed scalar per entity.
type Values struct {
	reg  *Registry
	last []int32
	seen []bool
}

// NewValues creates a table backed by its own registry.
func NewValues(name string, capacity int, opts ...Option) *Values {
	reg := NewRegistry(name, capacity, opts...)
	return &Values{
		reg:  reg,
		last: make([]int32, reg.Cap()),
		seen: make([]bool, reg.Cap()),
	}
}

// Observe records v for h. The first observation only establishes a
// baseline. Later observations that differ return delta = previous - v.
// Invalid handles and entities beyond capacity are ignored.
func (t *Values) Observe(h core.Handle, v int32) (prev, delta int32, changed bool) {
	i := t.reg.GetOrCreate(h)
	if i == InvalidIndex {
		return 0, 0, false
	}
	if !t.seen[i] {
		t.seen[i] = true
		t.last[i] = v
		return 0, 0, false
	}
	prev = t.last[i]
	if prev == v {
		return prev, 0, false
	}
	t.last[i] = v
	return prev, prev - v, true
}

// Last returns the stored value of h.
func (t *Values) Last(h core.Handle) (int32, bool) {
	i, ok := t.reg.Lookup(h)
	if !ok || !t.seen[i] {
		return 0, false
	}
	return t.last[i], true
}

// Reset clears every entry.
func (t *Values) Reset() {
	t.reg.Reset()
	clear(t.last)
	clear(t.seen)
}

// Len returns the number of tracked entities.
func (t *Values) Len() int { return t.reg.Len() }
