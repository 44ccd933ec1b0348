package gormstorage

import (
	"time"

	"gorm.io/datatypes"
)

// SessionRecord is one engine run.
type SessionRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	EngineVersion string `gorm:"size:64"`
	CodeBase      uint32
	StartedAt     time.Time
	EndedAt       *time.Time
	MapCount      uint32
}

func (SessionRecord) TableName() string { return "sessions" }

// MapSummaryRecord is one finished map. Per-side and per-unit rows are kept
// as JSON columns since they are always read together with the map.
type MapSummaryRecord struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SessionID  string `gorm:"size:36;index:idx_session_generation"`
	Generation uint32 `gorm:"index:idx_session_generation"`
	SeqRoot    uint32
	StartSide  uint8
	EndSide    uint8
	TotalTurns uint32
	KillEvents uint32
	StartedAt  time.Time
	EndedAt    time.Time
	Sides      datatypes.JSON
	Units      datatypes.JSON
}

func (MapSummaryRecord) TableName() string { return "map_summaries" }

// Models lists every table the backend migrates.
var Models = []any{&SessionRecord{}, &MapSummaryRecord{}}
