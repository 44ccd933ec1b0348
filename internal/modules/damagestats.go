package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

// SideDamage counts HP events during one side's turns.
type SideDamage struct {
	HpEvents uint32
	Damage   int64
	Heals    int64
	Kills    uint32
}

// DamageStats is a small per-side tally of HP events and kills.
type DamageStats struct {
	logger diag.Logger
	sides  [core.SideCount]SideDamage
}

func NewDamageStats(logger diag.Logger) *DamageStats {
	return &DamageStats{logger: diag.OrNop(logger)}
}

func (m *DamageStats) Name() string { return "damagestats" }

func (m *DamageStats) Register(b *bus.Bus) bool {
	return registerAll(
		b.RegisterMapBeginHandler(m.onMapBegin),
		b.RegisterMapEndHandler(m.onMapEnd),
		b.RegisterHpChangeHandler(m.onHpChange),
		b.RegisterKillHandler(m.onKill),
	)
}

func (m *DamageStats) onMapBegin(mc core.MapContext) {
	m.sides = [core.SideCount]SideDamage{}
	m.logger.Debug("damagestats reset", "gen", mc.Generation, "startSide", mc.StartSide.String())
}

func (m *DamageStats) onHpChange(hc core.HpChangeContext) {
	side, amount := hc.Turn.Side, int64(hc.Event.Amount)
	if !side.Valid() || amount == 0 {
		return
	}
	s := &m.sides[side]
	s.HpEvents++
	if amount > 0 {
		s.Damage += amount
	} else {
		s.Heals -= amount
	}
}

func (m *DamageStats) onKill(kc core.KillContext) {
	if side := kc.Turn.Side; side.Valid() {
		m.sides[side].Kills++
	}
}

func (m *DamageStats) onMapEnd(c core.MapEndContext) {
	m.logger.Info("damagestats map summary", "gen", c.Map.Generation, "totalTurns", c.Map.TotalTurns)
	for i, s := range m.sides {
		if s.HpEvents == 0 && s.Kills == 0 {
			continue
		}
		m.logger.Info("damagestats side",
			"side", core.TurnSide(i).String(),
			"hpEvents", s.HpEvents,
			"damage", s.Damage,
			"heals", s.Heals,
			"kills", s.Kills)
	}
}

// Side returns the tally for side.
func (m *DamageStats) Side(side core.TurnSide) SideDamage {
	if !side.Valid() {
		return SideDamage{}
	}
	return m.sides[side]
}
