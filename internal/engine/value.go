package engine

import "github.com/fates3gx/sdk/pkg/core"

// UnitHpSync feeds one raw HP observation into delta detection. The first
// observation of a unit in a map is a baseline. Later changes publish
// HpChange with amount = previous - new (positive is damage).
func (e *Engine) UnitHpSync(unit core.Handle, hp int32) {
	if !unit.IsValid() {
		return
	}
	prev, delta, changed := e.rt.HpValues().Observe(unit, hp)
	if !changed {
		return
	}

	gen := e.rt.Generation()
	if e.rt.HpApplyLog() && e.hpSyncLog.Allow(gen) {
		e.logger.Debug("hp sync",
			"unit", unit.String(),
			"prev", prev,
			"new", hp,
			"delta", delta,
			"mapActive", e.rt.Active(),
			"gen", gen,
			"n", e.hpSyncLog.Count())
	}

	e.HpChange(core.HpEvent{Target: unit, Amount: delta}, e.rt.ResolveSide())
}

// HpChange publishes one HP change attributed to side.
func (e *Engine) HpChange(ev core.HpEvent, side core.TurnSide) {
	tc := e.rt.TurnContext(side)
	hc := core.HpChangeContext{Event: ev, Map: tc.Map, Turn: tc}

	if e.rt.HpApplyLog() && e.hpChangeLog.Allow(tc.Map.Generation) {
		e.logger.Debug("hp change",
			"src", ev.Source.String(),
			"tgt", ev.Target.String(),
			"amt", ev.Amount,
			"flags", ev.Flags,
			"gen", tc.Map.Generation,
			"side", side.String(),
			"sideTurn", tc.SideTurnIndex,
			"n", e.hpChangeLog.Count())
	}
	e.bus.DispatchHpChange(hc)
}
