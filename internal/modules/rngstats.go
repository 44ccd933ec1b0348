package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

const maxRngBounds = 8

// BoundCount is how often one upper bound was requested.
type BoundCount struct {
	Bound uint32
	Count uint32
}

// RngStats counts RNG calls per side and by requested bound.
type RngStats struct {
	logger  diag.Logger
	total   uint32
	perSide [core.SideCount]uint32
	bounds  [maxRngBounds]BoundCount
	nBounds int
}

func NewRngStats(logger diag.Logger) *RngStats {
	return &RngStats{logger: diag.OrNop(logger)}
}

func (m *RngStats) Name() string { return "rngstats" }

func (m *RngStats) Register(b *bus.Bus) bool {
	return registerAll(
		b.RegisterMapBeginHandler(m.onMapBegin),
		b.RegisterMapEndHandler(m.onMapEnd),
		b.RegisterRngHandler(m.onRng),
	)
}

func (m *RngStats) onMapBegin(mc core.MapContext) {
	m.total = 0
	m.perSide = [core.SideCount]uint32{}
	m.bounds = [maxRngBounds]BoundCount{}
	m.nBounds = 0
	m.logger.Debug("rngstats reset", "gen", mc.Generation, "startSide", mc.StartSide.String())
}

func (m *RngStats) onRng(rc core.RngContext) {
	m.total++
	if side := rc.Turn.Side; side.Valid() {
		m.perSide[side]++
	}

	for i := range m.nBounds {
		if m.bounds[i].Bound == rc.Bound {
			m.bounds[i].Count++
			return
		}
	}
	// new bounds past the cap are dropped silently
	if m.nBounds < maxRngBounds {
		m.bounds[m.nBounds] = BoundCount{Bound: rc.Bound, Count: 1}
		m.nBounds++
	}
}

func (m *RngStats) onMapEnd(c core.MapEndContext) {
	m.logger.Info("rngstats map summary",
		"gen", c.Map.Generation, "totalTurns", c.Map.TotalTurns, "totalRngCalls", m.total)
	for i, n := range m.perSide {
		if n == 0 {
			continue
		}
		m.logger.Info("rngstats side", "side", core.TurnSide(i).String(), "rngCalls", n)
	}
	for _, b := range m.bounds[:m.nBounds] {
		m.logger.Debug("rngstats bound", "bound", b.Bound, "calls", b.Count, "cap", maxRngBounds)
	}
}

// Total returns the number of calls this map.
func (m *RngStats) Total() uint32 { return m.total }

// Calls returns the calls made during side's turns.
func (m *RngStats) Calls(side core.TurnSide) uint32 {
	if !side.Valid() {
		return 0
	}
	return m.perSide[side]
}

// Bounds returns the bound histogram in first-seen order.
func (m *RngStats) Bounds() []BoundCount {
	out := make([]BoundCount, m.nBounds)
	copy(out, m.bounds[:m.nBounds])
	return out
}
