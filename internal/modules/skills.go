package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/tracker"
	"github.com/fates3gx/sdk/pkg/core"
)

// DebugSkillID marks units whose HP changes are logged.
const DebugSkillID uint16 = 0x000E

const (
	maxDebugSkillUnits = 64
	skillHpLogCap      = 64
)

// Skills tracks the units that learned the debug skill during the current
// map and logs every HP change they receive.
type Skills struct {
	logger  diag.Logger
	holders *tracker.Registry
	hpLog   *diag.Budget
	full    bool
}

func NewSkills(logger diag.Logger) *Skills {
	logger = diag.OrNop(logger)
	return &Skills{
		logger:  logger,
		holders: tracker.NewRegistry("debugSkill", maxDebugSkillUnits),
		hpLog:   diag.NewBudget(skillHpLogCap),
	}
}

func (m *Skills) Name() string { return "skills" }

func (m *Skills) Register(b *bus.Bus) bool {
	ok := registerAll(
		b.RegisterMapEndHandler(m.onMapEnd),
		b.RegisterSkillLearnHandler(m.onSkillLearn),
		b.RegisterHpChangeHandler(m.onHpChange),
	)
	if ok {
		m.logger.Info("debug skills ready", "skill", DebugSkillID)
	}
	return ok
}

func (m *Skills) onMapEnd(core.MapEndContext) {
	m.holders.Reset()
	m.logger.Debug("debug skill table cleared")
}

func (m *Skills) onSkillLearn(sc core.SkillLearnContext) {
	if sc.Result <= 0 || sc.SkillID != DebugSkillID || !sc.Unit.IsValid() {
		return
	}
	if _, ok := m.holders.Lookup(sc.Unit); ok {
		return
	}
	if m.holders.GetOrCreate(sc.Unit) == tracker.InvalidIndex {
		// logged once per process, unlike the registry's per-map warning
		if !m.full {
			m.full = true
			m.logger.Warn("debug skill table full", "cap", maxDebugSkillUnits)
		}
		return
	}
	m.logger.Info("debug skill holder", "unit", sc.Unit.String(), "count", m.holders.Len())
}

func (m *Skills) onHpChange(hc core.HpChangeContext) {
	if !m.Has(hc.Event.Target) || !m.hpLog.Take() {
		return
	}
	m.logger.Info("debug skill hp change",
		"unit", hc.Event.Target.String(),
		"amount", hc.Event.Amount,
		"flags", hc.Event.Flags,
		"gen", hc.Map.Generation,
		"side", hc.Turn.Side.String(),
		"sideTurn", hc.Turn.SideTurnIndex)
}

// Has reports whether unit learned the debug skill this map.
func (m *Skills) Has(unit core.Handle) bool {
	if !unit.IsValid() {
		return false
	}
	_, ok := m.holders.Lookup(unit)
	return ok
}

// Holders returns the marked units in the order they learned the skill.
func (m *Skills) Holders() []core.Handle { return m.holders.Handles() }
