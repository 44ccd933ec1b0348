package v1

import (
	"math"
	"time"

	"github.com/fates3gx/sdk/pkg/core"
)

// SessionData contains all the data needed to build an export
type SessionData struct {
	Session   *core.Session
	Summaries []core.MapSummary
	EndedAt   time.Time
}

// Build creates an Export from the session data
func Build(data *SessionData) Export {
	export := Export{
		FormatVersion: FormatVersion,
		EndedAt:       formatTime(data.EndedAt),
		MapCount:      len(data.Summaries),
		Maps:          make([]Map, 0, len(data.Summaries)),
	}
	if s := data.Session; s != nil {
		export.EngineVersion = s.EngineVersion
		export.SessionID = s.ID
		export.CodeBase = s.CodeBase.String()
		export.StartedAt = formatTime(s.StartedAt)
	}

	for _, sum := range data.Summaries {
		export.TotalTurns += sum.TotalTurns
		export.TotalKills += sum.KillEvents
		export.Maps = append(export.Maps, buildMap(sum))
	}
	return export
}

func buildMap(sum core.MapSummary) Map {
	m := Map{
		Generation: sum.Generation,
		SeqRoot:    sum.SeqRoot.String(),
		StartSide:  sum.StartSide.String(),
		EndSide:    sum.EndSide.String(),
		TotalTurns: sum.TotalTurns,
		KillEvents: sum.KillEvents,
		StartedAt:  formatTime(sum.StartedAt),
		Sides:      make([][]any, 0, len(sum.Sides)),
		Units:      make([][]any, 0, len(sum.Units)),
	}
	if !sum.StartedAt.IsZero() && sum.EndedAt.After(sum.StartedAt) {
		m.DurationSec = roundTo(sum.EndedAt.Sub(sum.StartedAt).Seconds(), 3)
	}

	for _, s := range sum.Sides {
		m.Sides = append(m.Sides, []any{
			s.Side.String(),
			s.Turns,
			s.Kills,
			s.HpEvents,
			s.DamageDealt,
			s.HealingDone,
			s.RngCalls,
			s.HitAttempts,
			s.Hits,
			hitRate(s.Hits, s.HitAttempts),
		})
	}
	for _, u := range sum.Units {
		m.Units = append(m.Units, []any{u.Unit.String(), u.DamageTaken, u.HealingReceived})
	}
	return m
}

func hitRate(hits, attempts uint32) uint32 {
	if attempts == 0 {
		return 0
	}
	return hits * 100 / attempts
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
