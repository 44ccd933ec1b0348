// Package gormstorage implements storage.Backend on top of any GORM dialect.
// The sqlite and postgres backends embed it and add connection handling.
package gormstorage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend writes sessions and map summaries through GORM.
type Backend struct {
	deps Dependencies

	mu        sync.Mutex
	sessionID string
	maps      uint32
	now       func() time.Time
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{
		deps: deps,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB { return b.deps.DB }

// SetDB injects the connection. It must be called before Init.
func (b *Backend) SetDB(db *gorm.DB) { b.deps.DB = db }

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return fmt.Errorf("gorm backend: no database")
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Dialector.Name())
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close is a no-op; the owner of the connection closes it.
func (b *Backend) Close() error {
	return nil
}

// StartSession inserts the session row.
func (b *Backend) StartSession(s *core.Session) error {
	rec := SessionRecord{
		ID:            s.ID,
		EngineVersion: s.EngineVersion,
		CodeBase:      uint32(s.CodeBase),
		StartedAt:     s.StartedAt,
	}
	if err := b.deps.DB.Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	b.mu.Lock()
	b.sessionID = s.ID
	b.maps = 0
	b.mu.Unlock()
	return nil
}

// EndSession stamps the end time and map count on the session row.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	id, maps := b.sessionID, b.maps
	b.sessionID = ""
	b.mu.Unlock()

	if id == "" {
		return storage.ErrNoSession
	}
	ended := b.now()
	err := b.deps.DB.Model(&SessionRecord{}).Where("id = ?", id).
		Updates(map[string]any{"ended_at": ended, "map_count": maps}).Error
	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", id, err)
	}
	return nil
}

// RecordMapSummary inserts one map row.
func (b *Backend) RecordMapSummary(s *core.MapSummary) error {
	b.mu.Lock()
	active := b.sessionID != ""
	b.mu.Unlock()
	if !active {
		return storage.ErrNoSession
	}

	rec, err := ToRecord(s)
	if err != nil {
		return err
	}

	tx := b.deps.DB.Begin()
	if err := tx.Create(&rec).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert map summary %d: %w", s.Generation, err)
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit map summary %d: %w", s.Generation, err)
	}

	b.mu.Lock()
	b.maps++
	b.mu.Unlock()
	return nil
}

// ToRecord converts a summary into its table row.
func ToRecord(s *core.MapSummary) (MapSummaryRecord, error) {
	sides, err := json.Marshal(s.Sides)
	if err != nil {
		return MapSummaryRecord{}, fmt.Errorf("marshal sides: %w", err)
	}
	units, err := json.Marshal(s.Units)
	if err != nil {
		return MapSummaryRecord{}, fmt.Errorf("marshal units: %w", err)
	}
	return MapSummaryRecord{
		SessionID:  s.SessionID,
		Generation: s.Generation,
		SeqRoot:    uint32(s.SeqRoot),
		StartSide:  uint8(s.StartSide),
		EndSide:    uint8(s.EndSide),
		TotalTurns: s.TotalTurns,
		KillEvents: s.KillEvents,
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		Sides:      datatypes.JSON(sides),
		Units:      datatypes.JSON(units),
	}, nil
}

// FromRecord converts a table row back into a summary.
func FromRecord(r MapSummaryRecord) (core.MapSummary, error) {
	s := core.MapSummary{
		SessionID:  r.SessionID,
		Generation: r.Generation,
		SeqRoot:    core.Handle(r.SeqRoot),
		StartSide:  core.TurnSide(r.StartSide),
		EndSide:    core.TurnSide(r.EndSide),
		TotalTurns: r.TotalTurns,
		KillEvents: r.KillEvents,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
	}
	if len(r.Sides) > 0 {
		if err := json.Unmarshal(r.Sides, &s.Sides); err != nil {
			return s, fmt.Errorf("unmarshal sides: %w", err)
		}
	}
	if len(r.Units) > 0 {
		if err := json.Unmarshal(r.Units, &s.Units); err != nil {
			return s, fmt.Errorf("unmarshal units: %w", err)
		}
	}
	return s, nil
}

// MapSummaries returns every stored summary of a session in generation order.
func (b *Backend) MapSummaries(sessionID string) ([]core.MapSummary, error) {
	var rows []MapSummaryRecord
	err := b.deps.DB.Where("session_id = ?", sessionID).Order("generation").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load map summaries: %w", err)
	}

	out := make([]core.MapSummary, 0, len(rows))
	for _, r := range rows {
		s, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Session returns the stored session row.
func (b *Backend) Session(id string) (SessionRecord, error) {
	var rec SessionRecord
	err := b.deps.DB.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, fmt.Errorf("session %s: %w", id, err)
	}
	return rec, err
}
