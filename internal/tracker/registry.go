// Package tracker maps opaque entity identities to small dense indices and
// keeps map-scoped per-entity values on top of them.
package tracker

import (
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

// Index is a dense slot in [0, capacity).
type Index uint16

// InvalidIndex is returned for the zero handle or when the registry is full.
const InvalidIndex Index = 0xFFFF

// DefaultCapacity is the number of distinct units tracked per map.
const DefaultCapacity = 64

// IdentityFunc resolves a raw handle to the identity it should be tracked
// under. The same external object must always resolve to the same handle.
type IdentityFunc func(core.Handle) core.Handle

func sameHandle(h core.Handle) core.Handle { return h }

// Registry assigns each distinct handle seen during a map a stable index.
type Registry struct {
	name     string
	identity IdentityFunc
	logger   diag.Logger

	handles []core.Handle
	slots   map[core.Handle]Index
	warned  bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithIdentity installs an identity resolver.
func WithIdentity(fn IdentityFunc) Option {
	return func(r *Registry) {
		if fn != nil {
			r.identity = fn
		}
	}
}

// WithLogger sets the sink for the capacity diagnostic.
func WithLogger(l diag.Logger) Option {
	return func(r *Registry) {
		r.logger = diag.OrNop(l)
	}
}

// NewRegistry creates a registry with a fixed capacity.
func NewRegistry(name string, capacity int, opts ...Option) *Registry {
	if capacity <= 0 || capacity > int(InvalidIndex) {
		capacity = DefaultCapacity
	}
	r := &Registry{
		name:     name,
		identity: sameHandle,
		logger:   diag.Nop{},
		handles:  make([]core.Handle, 0, capacity),
		slots:    make(map[core.Handle]Index, capacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset forgets every entry. The capacity diagnostic is re-armed.
func (r *Registry) Reset() {
	r.handles = r.handles[:0]
	clear(r.slots)
	r.warned = false
}

// Lookup returns the index of h without creating one.
func (r *Registry) Lookup(h core.Handle) (Index, bool) {
	h = r.identity(h)
	if !h.IsValid() {
		return InvalidIndex, false
	}
	i, ok := r.slots[h]
	return i, ok
}

// GetOrCreate returns the index for h, assigning the next free slot on first
// sight. The zero handle and a full registry both yield InvalidIndex.
func (r *Registry) GetOrCreate(h core.Handle) Index {
	h = r.identity(h)
	if !h.IsValid() {
		return InvalidIndex
	}
	if i, ok := r.slots[h]; ok {
		return i
	}
	if len(r.handles) == cap(r.handles) {
		if !r.warned {
			r.warned = true
			r.logger.Warn("capacity reached; dropping",
				"registry", r.name, "capacity", cap(r.handles), "unit", h.String())
		}
		return InvalidIndex
	}
	i := Index(len(r.handles))
	r.handles = append(r.handles, h)
	r.slots[h] = i
	return i
}

// Handle returns the identity stored at i, or the zero handle.
func (r *Registry) Handle(i Index) core.Handle {
	if int(i) >= len(r.handles) {
		return 0
	}
	return r.handles[i]
}

// Len returns the number of assigned slots.
func (r *Registry) Len() int { return len(r.handles) }

// Cap returns the fixed capacity.
func (r *Registry) Cap() int { return cap(r.handles) }

// Handles returns the assigned identities in slot order.
func (r *Registry) Handles() []core.Handle {
	out := make([]core.Handle, len(r.handles))
	copy(out, r.handles)
	return out
}
