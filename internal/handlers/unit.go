package handlers

import (
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/pkg/core"
)

func (s *Service) itemGain(c hooks.Call) uint32 {
	total := s.enter(hooks.SEQItemGain)
	a := args(c, 4)
	s.logf(hooks.SEQItemGain, "item gain",
		"total", total,
		"seq", core.Handle(a[0]).String(),
		"unit", core.Handle(a[1]).String(),
		"itemArg", core.Handle(a[2]).String(),
		"mode", core.Handle(a[3]).String())

	result := c.Original(a...)
	s.eng.ItemGain(core.Handle(a[0]), core.Handle(a[1]), core.Handle(a[2]), core.Handle(a[3]),
		int32(result), s.rt.ResolveSide())
	return result
}

func (s *Service) itemUse(c hooks.Call) uint32 {
	total := s.enter(hooks.SEQItemUse)
	seq := c.Arg(0)
	var unit, ctx uint32
	if seq != 0 {
		unit = s.word(seq + useUnit)
		ctx = seq + useCtx
	}
	s.logf(hooks.SEQItemUse, "item use",
		"total", total,
		"seq", core.Handle(seq).String(),
		"unit", core.Handle(unit).String(),
		"useCtx", core.Handle(ctx).String())
	c.Original(seq)
	return 0
}

func (s *Service) levelUp(c hooks.Call) uint32 {
	total := s.enter(hooks.UNITLevelUp)
	unit := c.Arg(0)
	c.Original(unit)

	var level uint8
	if unit != 0 {
		level, _ = memory.ReadU8(s.mem, unit+unitLevel)
	}
	s.logf(hooks.UNITLevelUp, "level up", "total", total, "unit", core.Handle(unit).String(), "level", level)
	s.eng.LevelUp(core.Handle(unit), level, s.rt.ResolveSide())
	return 0
}

// skillLearn forwards only successful equips of a real skill; the loader
// calls it with skill 0 and result 0 many times.
func (s *Service) skillLearn(c hooks.Call) uint32 {
	total := s.enter(hooks.UNITSkillLearn)
	unit, skill := c.Arg(0), c.Arg(1)
	result := c.Original(unit, skill)
	if skill == 0 || result == 0 {
		return result
	}

	s.logf(hooks.UNITSkillLearn, "skill learn",
		"total", total, "unit", core.Handle(unit).String(), "skill", uint16(skill), "result", int32(result))
	s.eng.SkillLearn(core.Handle(unit), uint16(skill), 0, int32(result), s.rt.ResolveSide())
	return result
}
