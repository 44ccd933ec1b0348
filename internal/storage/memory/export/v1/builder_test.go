package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/pkg/core"
)

func TestHitRate(t *testing.T) {
	assert.Equal(t, uint32(0), hitRate(0, 0))
	assert.Equal(t, uint32(66), hitRate(2, 3))
	assert.Equal(t, uint32(100), hitRate(4, 4))
}

func TestBuildEmptySession(t *testing.T) {
	export := Build(&SessionData{})

	assert.Equal(t, FormatVersion, export.FormatVersion)
	assert.Equal(t, "", export.SessionID)
	assert.Equal(t, "", export.EndedAt)
	assert.Equal(t, 0, export.MapCount)
	assert.NotNil(t, export.Maps)
	assert.Empty(t, export.Maps)
}

func TestBuildWithSessionMetadata(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	export := Build(&SessionData{
		Session: &core.Session{ID: "abc", EngineVersion: "1.2.0", CodeBase: 0x00100000, StartedAt: start},
		EndedAt: start.Add(time.Hour),
	})

	assert.Equal(t, "abc", export.SessionID)
	assert.Equal(t, "1.2.0", export.EngineVersion)
	assert.Equal(t, "0x00100000", export.CodeBase)
	assert.Equal(t, "2026-03-01T12:00:00Z", export.StartedAt)
	assert.Equal(t, "2026-03-01T13:00:00Z", export.EndedAt)
}

func TestBuildWithMaps(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	export := Build(&SessionData{
		Summaries: []core.MapSummary{
			{
				Generation: 1,
				SeqRoot:    0x32100000,
				StartSide:  core.Side0,
				EndSide:    core.Side1,
				TotalTurns: 6,
				KillEvents: 2,
				StartedAt:  start,
				EndedAt:    start.Add(1500 * time.Millisecond),
				Sides: []core.SideSummary{
					{Side: core.Side0, Turns: 3, Kills: 2, HpEvents: 5, DamageDealt: 40, HealingDone: 6, RngCalls: 9, HitAttempts: 4, Hits: 3},
				},
				Units: []core.UnitSummary{{Unit: 0x32000100, DamageTaken: 40, HealingReceived: 6}},
			},
			{Generation: 2, TotalTurns: 1, EndSide: core.SideUnknown},
		},
	})

	require.Len(t, export.Maps, 2)
	assert.Equal(t, 2, export.MapCount)
	assert.Equal(t, uint32(7), export.TotalTurns)
	assert.Equal(t, uint32(2), export.TotalKills)

	m := export.Maps[0]
	assert.Equal(t, "0x32100000", m.SeqRoot)
	assert.Equal(t, "Side0", m.StartSide)
	assert.Equal(t, "Side1", m.EndSide)
	assert.Equal(t, 1.5, m.DurationSec)
	require.Len(t, m.Sides, 1)
	assert.Equal(t, []any{"Side0", uint32(3), uint32(2), uint32(5), int64(40), int64(6), uint32(9), uint32(4), uint32(3), uint32(75)}, m.Sides[0])
	require.Len(t, m.Units, 1)
	assert.Equal(t, []any{"0x32000100", int64(40), int64(6)}, m.Units[0])

	assert.Equal(t, "Unknown", export.Maps[1].EndSide)
	assert.Equal(t, 0.0, export.Maps[1].DurationSec)
	assert.Equal(t, "", export.Maps[1].StartedAt)
}

func TestBuildMarshalsRowsAsArrays(t *testing.T) {
	export := Build(&SessionData{Summaries: []core.MapSummary{{
		Units: []core.UnitSummary{{Unit: 0x10, DamageTaken: 1}},
	}}})

	data, err := json.Marshal(export.Maps[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"units":[["0x00000010",1,0]]`)
	assert.Contains(t, string(data), `"sides":[]`)
}
