package state

import "github.com/fates3gx/sdk/pkg/core"

// MapContext snapshots the lifecycle record.
func (r *Runtime) MapContext() core.MapContext {
	l := r.lifecycle
	return core.MapContext{
		SeqRoot:     l.SeqRoot,
		Generation:  l.Generation,
		StartSide:   l.StartSide,
		CurrentSide: l.CurrentSide,
		TotalTurns:  l.TotalTurns,
		KillEvents:  l.KillEvents,
		Active:      l.Active,
	}
}

// TurnContext snapshots the map and the turn count of side.
func (r *Runtime) TurnContext(side core.TurnSide) core.TurnContext {
	tc := core.TurnContext{Map: r.MapContext(), Side: side}
	if side.Valid() {
		tc.SideTurnIndex = r.lifecycle.TurnCount[side]
	}
	return tc
}
