package core

import "time"

// SideSummary aggregates one side's activity over a map.
type SideSummary struct {
	Side        TurnSide `json:"side"`
	Turns       uint32   `json:"turns"`
	Kills       uint32   `json:"kills"`
	HpEvents    uint32   `json:"hpEvents"`
	DamageDealt int64    `json:"damageDealt"`
	HealingDone int64    `json:"healingDone"`
	RngCalls    uint32   `json:"rngCalls"`
	HitAttempts uint32   `json:"hitAttempts"`
	Hits        uint32   `json:"hits"`
}

// UnitSummary aggregates one unit's received HP changes over a map.
type UnitSummary struct {
	Unit            Handle `json:"unit"`
	DamageTaken     int64  `json:"damageTaken"`
	HealingReceived int64  `json:"healingReceived"`
}

// MapSummary is written to storage once per finished map.
type MapSummary struct {
	SessionID  string        `json:"sessionId"`
	Generation uint32        `json:"generation"`
	SeqRoot    Handle        `json:"seqRoot"`
	StartSide  TurnSide      `json:"startSide"`
	EndSide    TurnSide      `json:"endSide"`
	TotalTurns uint32        `json:"totalTurns"`
	KillEvents uint32        `json:"killEvents"`
	StartedAt  time.Time     `json:"startedAt"`
	EndedAt    time.Time     `json:"endedAt"`
	Sides      []SideSummary `json:"sides"`
	Units      []UnitSummary `json:"units"`
}

// Session is one engine run. Every MapSummary carries its ID.
type Session struct {
	ID            string    `json:"id"`
	EngineVersion string    `json:"engineVersion"`
	CodeBase      Handle    `json:"codeBase"`
	StartedAt     time.Time `json:"startedAt"`
}
