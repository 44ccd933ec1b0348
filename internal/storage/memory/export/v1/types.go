// Package v1 contains the v1 export format for session summaries.
package v1

// FormatVersion is written into every export.
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	FormatVersion int    `json:"formatVersion"`
	EngineVersion string `json:"engineVersion"`
	SessionID     string `json:"sessionId"`
	CodeBase      string `json:"codeBase"`
	StartedAt     string `json:"startedAt"`
	EndedAt       string `json:"endedAt"`
	MapCount      int    `json:"mapCount"`
	TotalTurns    uint32 `json:"totalTurns"`
	TotalKills    uint32 `json:"totalKills"`
	Maps          []Map  `json:"maps"`
}

// Map is one finished map.
//
// Sides rows: [side, turns, kills, hpEvents, damageDealt, healingDone,
// rngCalls, hitAttempts, hits, hitRate].
// Units rows: [unit, damageTaken, healingReceived].
type Map struct {
	Generation  uint32  `json:"generation"`
	SeqRoot     string  `json:"seqRoot"`
	StartSide   string  `json:"startSide"`
	EndSide     string  `json:"endSide"`
	TotalTurns  uint32  `json:"totalTurns"`
	KillEvents  uint32  `json:"killEvents"`
	StartedAt   string  `json:"startedAt"`
	DurationSec float64 `json:"durationSec"`
	Sides       [][]any `json:"sides"`
	Units       [][]any `json:"units"`
}
