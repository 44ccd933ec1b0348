package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

const hitLogCap = 64

// HitTally counts hit rolls. A non-zero result is a hit.
type HitTally struct {
	Attempts uint32
	Hits     uint32
}

// Rate returns the hit rate as a whole percentage.
func (t HitTally) Rate() uint32 {
	if t.Attempts == 0 {
		return 0
	}
	return t.Hits * 100 / t.Attempts
}

// HitStats observes hit rolls per side. It never changes a result.
type HitStats struct {
	logger diag.Logger
	log    *diag.Budget

	total   HitTally
	perSide [core.SideCount]HitTally
}

func NewHitStats(logger diag.Logger) *HitStats {
	return &HitStats{logger: diag.OrNop(logger), log: diag.NewBudget(hitLogCap)}
}

func (m *HitStats) Name() string { return "hitstats" }

func (m *HitStats) Register(b *bus.Bus) bool {
	return registerAll(
		b.RegisterMapBeginHandler(m.onMapBegin),
		b.RegisterMapEndHandler(m.onMapEnd),
		b.RegisterHitCalcHandler(m.onHitCalc),
	)
}

func (m *HitStats) onMapBegin(mc core.MapContext) {
	m.total = HitTally{}
	m.perSide = [core.SideCount]HitTally{}
	m.logger.Debug("hitstats reset", "gen", mc.Generation, "startSide", mc.StartSide.String())
}

func (m *HitStats) onHitCalc(hc core.HitCalcContext) {
	hit := hc.Result != 0
	m.total.Attempts++
	if hit {
		m.total.Hits++
	}
	if side := hc.Turn.Side; side.Valid() {
		m.perSide[side].Attempts++
		if hit {
			m.perSide[side].Hits++
		}
	}

	if m.log.Take() {
		m.logger.Debug("hitstats roll",
			"base", hc.BaseRate,
			"result", hc.Result,
			"side", hc.Turn.Side.String(),
			"gen", hc.Map.Generation,
			"sideTurn", hc.Turn.SideTurnIndex,
			"totalTurns", hc.Map.TotalTurns,
			"n", m.log.Used())
	}
}

func (m *HitStats) onMapEnd(c core.MapEndContext) {
	m.logger.Info("hitstats map summary",
		"gen", c.Map.Generation,
		"attempts", m.total.Attempts,
		"hits", m.total.Hits,
		"hitRate", m.total.Rate())
	for i, t := range m.perSide {
		m.logger.Info("hitstats side", "side", core.TurnSide(i).String(),
			"attempts", t.Attempts, "hits", t.Hits, "hitRate", t.Rate())
	}
}

// Total returns the tally over every side.
func (m *HitStats) Total() HitTally { return m.total }

// Side returns the tally for side.
func (m *HitStats) Side(side core.TurnSide) HitTally {
	if !side.Valid() {
		return HitTally{}
	}
	return m.perSide[side]
}
