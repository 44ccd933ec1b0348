package combat

import "github.com/fates3gx/sdk/internal/queue"

// Modifier transforms the running value. It must not retain ctx.
type Modifier[C any] func(ctx C, current int32) int32

// Pipeline is an ordered, fixed-capacity list of modifiers.
type Pipeline[C any] struct {
	name  string
	slots *queue.Bounded[Modifier[C]]
}

// NewPipeline creates a pipeline holding at most capacity modifiers.
func NewPipeline[C any](name string, capacity int) *Pipeline[C] {
	return &Pipeline[C]{name: name, slots: queue.NewBounded[Modifier[C]](capacity)}
}

// Register appends fn. It fails for a nil fn or a full pipeline.
func (p *Pipeline[C]) Register(fn Modifier[C]) bool {
	if fn == nil {
		return false
	}
	return p.slots.Add(fn)
}

// Apply folds every modifier over initial in registration order and clamps
// the result at zero.
func (p *Pipeline[C]) Apply(ctx C, initial int32) int32 {
	current := initial
	p.slots.Each(func(m Modifier[C]) { current = m(ctx, current) })
	if current < 0 {
		return 0
	}
	return current
}

// Name returns the pipeline name.
func (p *Pipeline[C]) Name() string { return p.name }

// Len returns the number of registered modifiers.
func (p *Pipeline[C]) Len() int { return p.slots.Len() }

// Cap returns the fixed capacity.
func (p *Pipeline[C]) Cap() int { return p.slots.Cap() }
