package handlers

import (
	"github.com/fates3gx/sdk/internal/engine"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/pkg/core"
)

func (s *Service) hitCalcMain(c hooks.Call) uint32 {
	s.enter(hooks.BTLHitCalcMain)
	rate := c.Arg(0)
	result := c.Original(rate)

	s.eng.HitCalc(int32(rate), int32(result))
	s.logf(hooks.BTLHitCalcMain, "hit calc", "rate", int32(rate), "result", int32(result))
	return result
}

func (s *Service) critCalcMain(c hooks.Call) uint32 {
	s.enter(hooks.BTLCritCalcMain)
	unit, index := c.Arg(0), c.Arg(1)
	crit := c.Original(unit, index)

	s.logf(hooks.BTLCritCalcMain, "crit calc",
		"unit", core.Handle(unit).String(), "index", int32(index), "crit", int32(crit))
	return crit
}

// finalDamagePre remembers the battle root for the HP update that follows.
func (s *Service) finalDamagePre(c hooks.Call) uint32 {
	s.enter(hooks.BTLFinalDamagePre)
	a := args(c, 4)
	calc := a[0]
	root := s.word(calc)
	s.rt.SetBattleRoot(core.Handle(root))

	if root != 0 {
		s.logf(hooks.BTLFinalDamagePre, "final damage pre",
			"calc", core.Handle(calc).String(),
			"root", core.Handle(root).String(),
			"main", core.Handle(s.word(root+rootMainUnit)).String(),
			"flags", s.word(root+rootFlags),
			"unk14", int32(s.word(root+rootUnk14)),
			"unk18", s.word(root+rootUnk18),
			"unk1C", s.word(root+rootUnk1C))
	}

	c.Original(a...)
	return 0
}

func (s *Service) finalDamagePost(c hooks.Call) uint32 {
	s.enter(hooks.BTLFinalDamagePost)
	a := args(c, 3)
	s.logf(hooks.BTLFinalDamagePost, "final damage post",
		"ctx", core.Handle(a[0]).String(),
		"atk", core.Handle(a[1]).String(),
		"def", core.Handle(a[2]).String())
	c.Original(a...)
	return 0
}

func (s *Service) attackStanceCheck(c hooks.Call) uint32 {
	s.enter(hooks.BTLAttackStanceCheck)
	situation, index := c.Arg(0), c.Arg(1)
	result := c.Original(situation, index)

	s.logf(hooks.BTLAttackStanceCheck, "attack stance check",
		"situation", core.Handle(situation).String(), "index", int32(index), "result", int32(result))

	if inHeap(situation) && s.dumps.Take() {
		if w, err := memory.ReadWords(s.mem, situation, situationDumpWords); err == nil {
			s.logger.Debug("situation dump", "addr", core.Handle(situation).String(), "words", w)
		}
	}
	return result
}

func (s *Service) attackStanceApplySupport(c hooks.Call) uint32 {
	s.enter(hooks.BTLAttackStanceApplySupport)
	info := c.Arg(0)
	c.Original(info)

	if info != 0 {
		s.logf(hooks.BTLAttackStanceApplySupport, "attack stance support",
			"root", core.Handle(info).String(),
			"w0", s.word(info),
			"w1", s.word(info+4),
			"flags", s.word(info+rootFlags),
			"unk14", int32(s.word(info+rootUnk14)),
			"unk18", s.word(info+rootUnk18),
			"unk1C", s.word(info+rootUnk1C))
	}
	return 0
}

func (s *Service) skillEffectApply(c hooks.Call) uint32 {
	s.enter(hooks.BTLSkillEffectApply)
	a := args(c, 4)
	s.logf(hooks.BTLSkillEffectApply, "skill effect apply",
		"ctx", core.Handle(a[0]).String(),
		"atk", core.Handle(a[1]).String(),
		"def", core.Handle(a[2]).String(),
		"skill", a[3])
	return c.Original(a...)
}

// rng32 replaces the bounded RNG wrapper: it steps the core generator itself
// and applies the same scaling, so the original is not called.
func (s *Service) rng32(c hooks.Call) uint32 {
	s.enter(hooks.SYSRng32)
	st, bound := c.Arg(0), c.Arg(1)

	raw := s.invoker.Invoke(rngCoreVA, st)
	result := engine.ScaleRng(raw, bound)

	s.eng.Rng(core.Handle(st), raw, bound, result)
	return result
}
