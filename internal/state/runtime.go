// Package state holds the process-wide runtime context: map lifecycle, the
// per-map kill ring and statistics, and per-hook hit counters.
//
// A Runtime is driven from the host thread that runs hook callbacks and is
// not safe for concurrent use; only Stamp may be called from other
// goroutines. Every transition builds the next state in a local value and
// publishes it with a single assignment, so a nested hook
// fired from a handler never observes a half-applied reset.
package state

import (
	"sync/atomic"

	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/queue"
	"github.com/fates3gx/sdk/internal/tracker"
	"github.com/fates3gx/sdk/pkg/core"
)

// MaxKillEvents is the capacity of the per-map kill ring.
const MaxKillEvents = 64

// MapLifecycle is the lifecycle record of the current (or last) map.
type MapLifecycle struct {
	SeqRoot     core.Handle
	Generation  uint32
	StartSide   core.TurnSide
	CurrentSide core.TurnSide
	TotalTurns  uint32
	TurnCount   [core.SideCount]uint32
	KillEvents  uint32
	Active      bool
}

// MapStats are kill totals for the current map.
type MapStats struct {
	TotalKills  uint32
	KillsBySide [core.SideCount]uint32
}

// Runtime is the explicit replacement for process-wide globals.
type Runtime struct {
	lifecycle MapLifecycle
	stats     MapStats
	kills     *queue.Bounded[core.KillEvent]
	hp        *tracker.Values

	lastSeq  core.Handle
	seenSeq  bool
	turnSide core.TurnSide

	battleRoot core.Handle
	hpApplyLog bool

	hookCounts [hooks.Count]uint32

	// generation in the high word, resolved side in the low word
	stamp atomic.Uint64
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithTracker replaces the per-entity HP table.
func WithTracker(v *tracker.Values) Option {
	return func(r *Runtime) {
		if v != nil {
			r.hp = v
		}
	}
}

// WithHpApplyLog sets the initial state of the HP diagnostics toggle.
func WithHpApplyLog(on bool) Option {
	return func(r *Runtime) {
		r.hpApplyLog = on
	}
}

// New returns a reset runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		kills: queue.NewBounded[core.KillEvent](MaxKillEvents),
		hp:    tracker.NewValues("hp", tracker.DefaultCapacity),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Reset()
	return r
}

// Reset restores the startup state: no map seen, generation zero.
func (r *Runtime) Reset() {
	r.lifecycle = MapLifecycle{StartSide: core.SideUnknown, CurrentSide: core.SideUnknown}
	r.stats = MapStats{}
	r.kills.Reset()
	r.hp.Reset()
	r.lastSeq = 0
	r.seenSeq = false
	r.turnSide = core.SideUnknown
	r.battleRoot = 0
	r.publish()
}

// IsNewMap reports whether seq differs from the last map root observed
// through BeginMap, or no map has been seen yet.
func (r *Runtime) IsNewMap(seq core.Handle) bool {
	return !r.seenSeq || seq != r.lastSeq
}

// BeginMap starts the next generation.
func (r *Runtime) BeginMap(seq core.Handle, side core.TurnSide) {
	next := MapLifecycle{
		SeqRoot:     seq,
		Generation:  r.lifecycle.Generation + 1,
		StartSide:   side,
		CurrentSide: side,
		Active:      true,
	}

	r.hp.Reset()
	r.kills.Reset()
	r.stats = MapStats{}
	r.lastSeq = seq
	r.seenSeq = true
	r.lifecycle = next
	r.publish()
}

// BeginTurn records the start of a turn for side. Every call counts towards
// TotalTurns; a side outside 0..3 becomes the current side but gets no
// per-side count.
func (r *Runtime) BeginTurn(side core.TurnSide) {
	next := r.lifecycle
	next.CurrentSide = side
	next.TotalTurns++
	if side.Valid() {
		next.TurnCount[side]++
	}
	r.turnSide = side
	r.lifecycle = next
	r.publish()
}

// EndMap deactivates the map. Counters stay readable until the next BeginMap.
func (r *Runtime) EndMap() {
	r.lifecycle.Active = false
	r.publish()
}

func (r *Runtime) publish() {
	r.stamp.Store(uint64(r.lifecycle.Generation)<<32 | uint64(uint32(r.ResolveSide())))
}

// Stamp returns the generation and resolved side as of the last completed
// transition. It is safe to call from any goroutine.
func (r *Runtime) Stamp() (uint32, core.TurnSide) {
	v := r.stamp.Load()
	return uint32(v >> 32), core.TurnSide(uint8(v))
}

// PushKill appends ev to the kill ring. It returns false once the ring holds
// MaxKillEvents entries.
func (r *Runtime) PushKill(ev core.KillEvent) bool {
	if !r.kills.Add(ev) {
		return false
	}
	r.lifecycle.KillEvents++
	return true
}

// CountKill adds one kill to the per-map stats for side. It is ignored while
// no map is active; unknown sides only count towards the total.
func (r *Runtime) CountKill(side core.TurnSide) {
	if !r.lifecycle.Active {
		return
	}
	r.stats.TotalKills++
	if side.Valid() {
		r.stats.KillsBySide[side]++
	}
}

// Lifecycle returns a copy of the lifecycle record.
func (r *Runtime) Lifecycle() MapLifecycle { return r.lifecycle }

// Stats returns a copy of the per-map kill stats.
func (r *Runtime) Stats() MapStats { return r.stats }

// Kills returns a copy of the kill ring in push order.
func (r *Runtime) Kills() []core.KillEvent { return r.kills.Snapshot() }

// Active reports whether a map is running.
func (r *Runtime) Active() bool { return r.lifecycle.Active }

// Generation returns the current map generation.
func (r *Runtime) Generation() uint32 { return r.lifecycle.Generation }

// TurnSide returns the side recorded by the last BeginTurn, across maps.
func (r *Runtime) TurnSide() core.TurnSide { return r.turnSide }

// ResolveSide returns the side an event without its own side belongs to:
// the last turn-begin side while a map is active, SideUnknown otherwise.
func (r *Runtime) ResolveSide() core.TurnSide {
	if !r.lifecycle.Active {
		return core.SideUnknown
	}
	return r.turnSide
}

// HpValues returns the map-scoped per-unit HP table.
func (r *Runtime) HpValues() *tracker.Values { return r.hp }

// SetBattleRoot remembers the battle calculator root seen last.
func (r *Runtime) SetBattleRoot(h core.Handle) { r.battleRoot = h }

// BattleRoot returns the battle calculator root seen last.
func (r *Runtime) BattleRoot() core.Handle { return r.battleRoot }

// HpApplyLog reports whether HP diagnostics are enabled.
func (r *Runtime) HpApplyLog() bool { return r.hpApplyLog }

// SetHpApplyLog toggles HP diagnostics.
func (r *Runtime) SetHpApplyLog(on bool) { r.hpApplyLog = on }

// CountHook increments the hit counter of id and returns the new value.
func (r *Runtime) CountHook(id hooks.ID) uint32 {
	if !id.Valid() {
		return 0
	}
	r.hookCounts[id]++
	return r.hookCounts[id]
}

// HookCount returns the hit counter of id.
func (r *Runtime) HookCount(id hooks.ID) uint32 {
	if !id.Valid() {
		return 0
	}
	return r.hookCounts[id]
}

// HookCounts returns every hit counter in identity order.
func (r *Runtime) HookCounts() [hooks.Count]uint32 { return r.hookCounts }
