package handlers

import (
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/pkg/core"
)

// battleUpdateHp runs the four battle result slots through the damage
// pipeline before the original applies them. Only the post-battle pass
// (mode 0) is adjusted.
func (s *Service) battleUpdateHp(c hooks.Call) uint32 {
	s.enter(hooks.SEQHpDamage)
	seq, mode := c.Arg(0), c.Arg(1)

	var base uint32
	if seq != 0 {
		base = s.word(seq + seqResultBase)
	}
	if base != 0 {
		s.hpLogf(hooks.SEQHpDamage, "battle update hp",
			"seq", core.Handle(seq).String(), "mode", int32(mode), "resultBase", core.Handle(base).String())
		if mode == 0 {
			s.applySlots(seq, base)
		}
	}

	c.Original(seq, mode)
	return 0
}

func (s *Service) applySlots(seq, base uint32) {
	if s.combat.DamageModifiers() == 0 {
		return
	}
	root := s.rt.BattleRoot()
	var attacker uint32
	if root.IsValid() {
		attacker = s.word(uint32(root) + rootMainUnit)
	}

	for slot := uint32(0); slot < resultSlots; slot++ {
		addr := base + resultHpSlots + slot*4
		cur, err := memory.ReadU32(s.mem, addr)
		if err != nil {
			continue
		}
		next := s.combat.ApplyDamageModifiers(root, core.Handle(seq), core.Handle(attacker), 0, int32(cur))
		if uint32(next) == cur {
			continue
		}
		if err := memory.WriteU32(s.mem, addr, uint32(next)); err != nil {
			s.logger.Warn("hp slot write failed", "slot", slot, "err", err)
			continue
		}
		s.hpLogf(hooks.SEQHpDamage, "hp slot adjusted", "slot", slot, "old", int32(cur), "new", next)
	}
}

// unitHpDamage runs the damage argument through the post-battle pipeline.
func (s *Service) unitHpDamage(c hooks.Call) uint32 {
	total := s.enter(hooks.UNITHpDamage)
	a := args(c, 4)
	unit, amount := a[1], int32(a[2])

	if s.combat.PostBattleHpModifiers() > 0 {
		a[2] = uint32(s.combat.ApplyPostBattleHp(core.Handle(unit), amount))
	}
	s.hpLogf(hooks.UNITHpDamage, "unit hp damage",
		"total", total, "idx", int32(unit), "dmg", amount, "applied", int32(a[2]))
	return c.Original(a...)
}

// updateCloneHP is the canonical source of HP change events.
func (s *Service) updateCloneHP(c hooks.Call) uint32 {
	s.enter(hooks.UNITUpdateCloneHP)
	unit := c.Arg(0)
	c.Original(unit)
	if unit == 0 {
		return 0
	}

	hp, err := memory.ReadS8(s.mem, unit+unitHP)
	if err != nil {
		return 0
	}
	s.eng.UnitHpSync(core.Handle(unit), int32(hp))

	cloneHp := int32(-1)
	clone := s.word(unit + unitClone)
	if clone != 0 {
		if v, err := memory.ReadS8(s.mem, clone+unitHP); err == nil {
			cloneHp = int32(v)
		}
	}
	s.hpLogf(hooks.UNITUpdateCloneHP, "update clone hp",
		"unit", core.Handle(unit).String(), "hp", hp, "clone", core.Handle(clone).String(), "cloneHp", cloneHp)
	return 0
}

func (s *Service) killCheck(c hooks.Call) uint32 {
	s.enter(hooks.HPKillCheck)
	calc, ctx := c.Arg(0), c.Arg(1)
	c.Original(calc, ctx)
	if calc == 0 {
		return 0
	}

	ev := core.KillEvent{
		Seq:   core.Handle(calc),
		Flags: s.word(calc + killFlags),
		Dead0: core.Handle(s.word(calc + killDead0)),
		Dead1: core.Handle(s.word(calc + killDead1)),
	}
	if ev.Flags == 0 && !ev.Dead0.IsValid() && !ev.Dead1.IsValid() {
		return 0
	}

	pushed := s.eng.Kill(ev)
	stats := s.rt.Stats()
	s.logf(hooks.HPKillCheck, "kill check",
		"seq", ev.Seq.String(),
		"flags", ev.Flags,
		"ctx", core.Handle(ctx).String(),
		"pushed", pushed,
		"gen", s.rt.Generation(),
		"totalKills", stats.TotalKills,
		"killsBySide", stats.KillsBySide)
	return 0
}

// hpDamageHelper only observes healing. HP change events come from
// updateCloneHP.
func (s *Service) hpDamageHelper(c hooks.Call) uint32 {
	total := s.enter(hooks.SEQHpDamageHelper)
	a := args(c, 4)
	s.hpLogf(hooks.SEQHpDamageHelper, "hp damage helper",
		"total", total, "heal", int32(a[2]), "unit", core.Handle(a[1]).String())
	return c.Original(a...)
}

func (s *Service) mapProc(id hooks.ID) hooks.Callback {
	return func(c hooks.Call) uint32 {
		s.enter(id)
		seq := c.Arg(0)
		s.logf(id, "map proc", "seq", core.Handle(seq).String())
		c.Original(seq)
		return 0
	}
}
