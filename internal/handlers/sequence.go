package handlers

import (
	"github.com/fates3gx/sdk/internal/engine"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/pkg/core"
)

func (s *Service) mapStart(c hooks.Call) uint32 {
	s.enter(hooks.SEQMapStart)
	seq := c.Arg(0)
	s.eng.MapStart(core.Handle(seq), s.turnSide())
	c.Original(seq)
	return 0
}

// turnBegin publishes before the original so handlers see the new turn
// before the game starts acting on it.
func (s *Service) turnBegin(c hooks.Call) uint32 {
	s.enter(hooks.SEQTurnBegin)
	raw, ok := s.turnSideRaw()
	side := core.SideUnknown
	if ok {
		side = core.SideFromRaw(uint32(raw))
	}
	s.eng.TurnBegin(side)
	c.Original()

	s.logf(hooks.SEQTurnBegin, "turn begin", "sideRaw", raw, "side", side.String())
	return 0
}

func (s *Service) turnEnd(c hooks.Call) uint32 {
	s.enter(hooks.SEQTurnEnd)
	seq := c.Arg(0)
	result := c.Original(seq)
	s.eng.TurnEnd(core.Handle(seq))

	s.logf(hooks.SEQTurnEnd, "turn end",
		"seq", core.Handle(seq).String(), "side", s.rt.TurnSide().String(), "result", int32(result))
	return result
}

func (s *Service) mapEnd(c hooks.Call) uint32 {
	s.enter(hooks.SEQMapEnd)
	seq := c.Arg(0)
	result := c.Original(seq)
	side := s.turnSide()
	s.eng.MapEnd(core.Handle(seq), side)

	s.logf(hooks.SEQMapEnd, "map complete",
		"seq", core.Handle(seq).String(), "side", side.String(), "result", int32(result))
	return result
}

func (s *Service) actionEnd(c hooks.Call) uint32 {
	s.enter(hooks.EVENTActionEnd)
	inst := c.Arg(0)
	result := c.Original(inst)
	if inst == 0 {
		return result
	}

	s.eng.ActionEnd(engine.ActionEnd{
		Inst:    core.Handle(inst),
		SeqMap:  core.Handle(s.word(inst + cmdSeqMap)),
		CmdData: core.Handle(s.word(inst + cmdData)),
		CmdID:   s.word(inst + cmdID),
		SideRaw: s.word(inst + cmdSide),
		Unk28:   s.word(inst + cmdUnk28),
	})
	s.logf(hooks.EVENTActionEnd, "action end", "inst", core.Handle(inst).String(), "result", int32(result))
	return result
}

func (s *Service) unitMove(c hooks.Call) uint32 {
	s.enter(hooks.SEQUnitMove)
	seq := c.Arg(0)
	c.Original(seq)
	s.logf(hooks.SEQUnitMove, "unit move", "seq", core.Handle(seq).String())
	return 0
}
