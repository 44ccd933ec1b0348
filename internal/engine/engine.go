// Package engine turns raw hook observations into lifecycle transitions and
// typed context snapshots, and publishes them on the bus.
package engine

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/pkg/core"
)

// Per-generation diagnostic caps.
const (
	persistentLogCap = 8
	rngLogCap        = 64
	hitCalcLogCap    = 128
	hpSyncLogCap     = 64
	hpChangeLogCap   = 128
	actionEndLogCap  = 32
)

// Engine is the synthesis layer. Like the Runtime it wraps, it runs on the
// host thread only.
type Engine struct {
	rt     *state.Runtime
	bus    *bus.Bus
	logger diag.Logger

	persistentLog *diag.Limiter
	rngLog        *diag.Limiter
	hitCalcLog    *diag.Limiter
	hpSyncLog     *diag.Limiter
	hpChangeLog   *diag.Limiter
	actionEndLog  *diag.Budget
}

// New wires the engine to a runtime and a bus.
func New(rt *state.Runtime, b *bus.Bus, logger diag.Logger) *Engine {
	return &Engine{
		rt:            rt,
		bus:           b,
		logger:        diag.OrNop(logger),
		persistentLog: diag.NewLimiter(persistentLogCap),
		rngLog:        diag.NewLimiter(rngLogCap),
		hitCalcLog:    diag.NewLimiter(hitCalcLogCap),
		hpSyncLog:     diag.NewLimiter(hpSyncLogCap),
		hpChangeLog:   diag.NewLimiter(hpChangeLogCap),
		actionEndLog:  diag.NewBudget(actionEndLogCap),
	}
}

// Runtime returns the runtime the engine mutates.
func (e *Engine) Runtime() *state.Runtime { return e.rt }

// Bus returns the bus the engine publishes on.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// MapStart handles one invocation of the map sequence tick. A new root
// starts the next generation and publishes MapBegin; it returns true in
// that case. A repeated root is only logged.
func (e *Engine) MapStart(seq core.Handle, side core.TurnSide) bool {
	if !e.rt.IsNewMap(seq) {
		if e.persistentLog.Allow(e.rt.Generation()) {
			e.logger.Debug("map persistent", "seq", seq.String(), "side", side.String(),
				"tick", e.persistentLog.Count())
		}
		return false
	}

	e.rt.BeginMap(seq, side)
	mc := e.rt.MapContext()
	e.logger.Info("map begin",
		"seq", seq.String(),
		"gen", mc.Generation,
		"start", mc.StartSide.String(),
		"current", mc.CurrentSide.String(),
		"totalTurns", mc.TotalTurns)
	e.bus.DispatchMapBegin(mc)
	return true
}

// TurnBegin records a new turn for side and publishes TurnBegin.
func (e *Engine) TurnBegin(side core.TurnSide) {
	e.rt.BeginTurn(side)
	tc := e.rt.TurnContext(side)
	e.logger.Debug("turn begin",
		"gen", tc.Map.Generation,
		"side", side.String(),
		"sideTurn", tc.SideTurnIndex,
		"totalTurns", tc.Map.TotalTurns)
	e.bus.DispatchTurnBegin(tc)
}

// TurnEnd publishes TurnEnd for the side of the last turn begin.
func (e *Engine) TurnEnd(seq core.Handle) {
	side := e.rt.TurnSide()
	ctx := core.TurnEndContext{Turn: e.rt.TurnContext(side), Seq: seq}
	e.logger.Debug("turn end",
		"seq", seq.String(),
		"gen", ctx.Turn.Map.Generation,
		"side", side.String(),
		"sideTurn", ctx.Turn.SideTurnIndex,
		"totalTurns", ctx.Turn.Map.TotalTurns)
	e.bus.DispatchTurnEnd(ctx)
}

// MapEnd deactivates the map and publishes MapEnd with the snapshot taken
// just before deactivation.
func (e *Engine) MapEnd(seq core.Handle, side core.TurnSide) {
	ctx := core.MapEndContext{Map: e.rt.MapContext(), Side: side}
	e.rt.EndMap()

	stats := e.rt.Stats()
	e.logger.Info("map end",
		"seq", seq.String(),
		"gen", ctx.Map.Generation,
		"side", side.String(),
		"totalTurns", ctx.Map.TotalTurns,
		"kills", ctx.Map.KillEvents,
		"totalKills", stats.TotalKills,
		"killsBySide", stats.KillsBySide)
	e.bus.DispatchMapEnd(ctx)
}

// Kill records a kill event, counts it for the resolved side and publishes
// Kill. It returns whether the event fit in the kill ring.
func (e *Engine) Kill(ev core.KillEvent) bool {
	pushed := e.rt.PushKill(ev)
	side := e.rt.ResolveSide()
	e.rt.CountKill(side)

	tc := e.rt.TurnContext(side)
	kc := core.KillContext{Event: ev, Map: tc.Map, Turn: tc}
	e.logger.Debug("kill",
		"seq", ev.Seq.String(),
		"flags", ev.Flags,
		"dead0", ev.Dead0.String(),
		"dead1", ev.Dead1.String(),
		"pushed", pushed,
		"gen", tc.Map.Generation,
		"side", side.String(),
		"mapKills", tc.Map.KillEvents)
	e.bus.DispatchKill(kc)
	return pushed
}
