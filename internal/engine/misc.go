package engine

import "github.com/fates3gx/sdk/pkg/core"

// ScaleRng maps a raw 32-bit draw into [0, bound). A zero bound yields 0.
func ScaleRng(raw, bound uint32) uint32 {
	if bound == 0 {
		return 0
	}
	return uint32((uint64(raw) * uint64(bound)) >> 32)
}

// Rng publishes one bounded RNG call. The turn snapshot uses the map's
// current side, which may be Unknown outside a map.
func (e *Engine) Rng(state core.Handle, raw, bound, result uint32) {
	mc := e.rt.MapContext()
	rc := core.RngContext{
		Map:    mc,
		Turn:   e.rt.TurnContext(mc.CurrentSide),
		State:  state,
		Raw:    raw,
		Bound:  bound,
		Result: result,
	}

	// the limiter is consulted only during a map so menus don't use it up
	if mc.Active && e.rngLog.Allow(mc.Generation) {
		e.logger.Debug("rng call",
			"state", state.String(),
			"raw", raw,
			"bound", bound,
			"result", result,
			"gen", mc.Generation,
			"side", rc.Turn.Side.String(),
			"n", e.rngLog.Count())
	}
	e.bus.DispatchRng(rc)
}

// HitCalc publishes one hit roll.
func (e *Engine) HitCalc(baseRate, result int32) {
	side := e.rt.ResolveSide()
	tc := e.rt.TurnContext(side)
	ctx := core.HitCalcContext{Map: tc.Map, Turn: tc, BaseRate: baseRate, Result: result}

	if tc.Map.Active && e.hitCalcLog.Allow(tc.Map.Generation) {
		e.logger.Debug("hit calc",
			"base", baseRate,
			"result", result,
			"gen", tc.Map.Generation,
			"side", side.String(),
			"n", e.hitCalcLog.Count())
	}
	e.bus.DispatchHitCalc(ctx)
}

// LevelUp publishes a level-up of unit.
func (e *Engine) LevelUp(unit core.Handle, level uint8, side core.TurnSide) {
	tc := e.rt.TurnContext(side)
	e.logger.Debug("level up", "unit", unit.String(), "level", level,
		"gen", tc.Map.Generation, "side", side.String())
	e.bus.DispatchLevelUp(core.LevelUpContext{Map: tc.Map, Turn: tc, Unit: unit, Level: level})
}

// SkillLearn publishes a successful skill equip.
func (e *Engine) SkillLearn(unit core.Handle, skillID, flags uint16, result int32, side core.TurnSide) {
	tc := e.rt.TurnContext(side)
	e.logger.Debug("skill learn",
		"unit", unit.String(),
		"skill", skillID,
		"flags", flags,
		"result", result,
		"gen", tc.Map.Generation,
		"side", side.String())
	e.bus.DispatchSkillLearn(core.SkillLearnContext{
		Map:     tc.Map,
		Turn:    tc,
		Unit:    unit,
		SkillID: skillID,
		Flags:   flags,
		Result:  result,
	})
}

// ItemGain publishes an item handed to unit.
func (e *Engine) ItemGain(seq, unit, itemArg, modeOrCtx core.Handle, result int32, side core.TurnSide) {
	tc := e.rt.TurnContext(side)
	e.logger.Debug("item gain",
		"seq", seq.String(),
		"unit", unit.String(),
		"itemArg", itemArg.String(),
		"mode", modeOrCtx.String(),
		"result", result,
		"gen", tc.Map.Generation,
		"side", side.String())
	e.bus.DispatchItemGain(core.ItemGainContext{
		Map:       tc.Map,
		Turn:      tc,
		Seq:       seq,
		Unit:      unit,
		ItemArg:   itemArg,
		ModeOrCtx: modeOrCtx,
		Result:    result,
	})
}

// ActionEnd describes a finished unit command.
type ActionEnd struct {
	Inst    core.Handle
	SeqMap  core.Handle
	CmdData core.Handle
	CmdID   uint32
	SideRaw uint32
	Unk28   uint32
}

// ActionEnd logs a finished unit command. It has no bus family.
func (e *Engine) ActionEnd(a ActionEnd) {
	if !e.actionEndLog.Take() {
		return
	}
	side := core.SideFromRaw(a.SideRaw)
	tc := e.rt.TurnContext(side)
	e.logger.Debug("action end",
		"inst", a.Inst.String(),
		"seqMap", a.SeqMap.String(),
		"cmdData", a.CmdData.String(),
		"cmdId", a.CmdID,
		"sideRaw", a.SideRaw,
		"side", side.String(),
		"unk28", a.Unk28,
		"gen", tc.Map.Generation,
		"sideTurn", tc.SideTurnIndex,
		"n", e.actionEndLog.Used())
}
