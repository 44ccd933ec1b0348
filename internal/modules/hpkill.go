package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/tracker"
	"github.com/fates3gx/sdk/pkg/core"
)

const maxSummaryUnits = 32

// SideHp is the HP activity attributed to one side.
type SideHp struct {
	DamageDealt int64
	HealingDone int64
}

// UnitHp is the HP activity received by one unit.
type UnitHp struct {
	Unit            core.Handle
	DamageTaken     int64
	HealingReceived int64
}

// HpKill aggregates HP changes and kills per side and per unit for the
// current map.
type HpKill struct {
	logger diag.Logger
	units  *tracker.Registry

	sides       [core.SideCount]SideHp
	perUnit     [tracker.DefaultCapacity]UnitHp
	killsBySide [core.SideCount]uint32
	totalKills  uint32
	generation  uint32
}

// NewHpKill creates the module.
func NewHpKill(logger diag.Logger) *HpKill {
	logger = diag.OrNop(logger)
	return &HpKill{
		logger: logger,
		units:  tracker.NewRegistry("hpkill", tracker.DefaultCapacity, tracker.WithLogger(logger)),
	}
}

func (m *HpKill) Name() string { return "hpkill" }

func (m *HpKill) Register(b *bus.Bus) bool {
	return registerAll(
		b.RegisterMapBeginHandler(m.onMapBegin),
		b.RegisterMapEndHandler(m.onMapEnd),
		b.RegisterHpChangeHandler(m.onHpChange),
		b.RegisterKillHandler(m.onKill),
	)
}

func (m *HpKill) onMapBegin(mc core.MapContext) {
	m.units.Reset()
	m.sides = [core.SideCount]SideHp{}
	m.perUnit = [tracker.DefaultCapacity]UnitHp{}
	m.killsBySide = [core.SideCount]uint32{}
	m.totalKills = 0
	m.generation = mc.Generation
	m.logger.Info("hpkill map begin", "gen", mc.Generation, "seq", mc.SeqRoot.String())
}

func (m *HpKill) onMapEnd(c core.MapEndContext) {
	m.logger.Info("hpkill map summary",
		"gen", m.generation,
		"totalTurns", c.Map.TotalTurns,
		"totalKills", m.totalKills,
		"killsBySide", m.killsBySide)
	for i, s := range m.sides {
		m.logger.Info("hpkill side", "side", core.TurnSide(i).String(),
			"dmgDealt", s.DamageDealt, "healDone", s.HealingDone)
	}
	for i, u := range m.UnitStats() {
		if i == maxSummaryUnits {
			break
		}
		m.logger.Info("hpkill unit", "slot", i, "unit", u.Unit.String(),
			"dmgTaken", u.DamageTaken, "healRecv", u.HealingReceived)
	}
}

func (m *HpKill) onHpChange(hc core.HpChangeContext) {
	amount := int64(hc.Event.Amount)
	if side := hc.Turn.Side; side.Valid() {
		switch {
		case amount > 0:
			m.sides[side].DamageDealt += amount
		case amount < 0:
			m.sides[side].HealingDone -= amount
		}
	}

	idx := m.units.GetOrCreate(hc.Event.Target)
	if idx == tracker.InvalidIndex {
		return
	}
	u := &m.perUnit[idx]
	u.Unit = m.units.Handle(idx)
	switch {
	case amount > 0:
		u.DamageTaken += amount
	case amount < 0:
		u.HealingReceived -= amount
	}
}

func (m *HpKill) onKill(kc core.KillContext) {
	m.totalKills++
	if side := kc.Turn.Side; side.Valid() {
		m.killsBySide[side]++
	}
}

// SideStats returns the HP aggregates for side.
func (m *HpKill) SideStats(side core.TurnSide) (SideHp, bool) {
	if !side.Valid() {
		return SideHp{}, false
	}
	return m.sides[side], true
}

// Kills returns the total and per-side kill counts.
func (m *HpKill) Kills() (uint32, [core.SideCount]uint32) {
	return m.totalKills, m.killsBySide
}

// UnitStats returns a snapshot of every tracked unit in slot order.
func (m *HpKill) UnitStats() []UnitHp {
	out := make([]UnitHp, m.units.Len())
	copy(out, m.perUnit[:m.units.Len()])
	return out
}

// QueryUnit returns the aggregates for one unit.
func (m *HpKill) QueryUnit(unit core.Handle) (UnitHp, bool) {
	idx, ok := m.units.Lookup(unit)
	if !ok {
		return UnitHp{}, false
	}
	return m.perUnit[idx], true
}
