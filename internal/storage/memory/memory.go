// Package memory keeps map summaries in memory and exports the session to
// a JSON file when it ends.
package memory

import (
	"sync"
	"time"

	"github.com/fates3gx/sdk/internal/config"
	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
)

// Backend stores session data in memory and exports to JSON
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	summaries      []core.MapSummary
	lastExportPath string
	now            func() time.Time

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.summaries = nil
	b.lastExportPath = ""
	return nil
}

// EndSession finalizes and exports the session data
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	return b.exportJSON()
}

// RecordMapSummary appends one finished map.
func (b *Backend) RecordMapSummary(s *core.MapSummary) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return storage.ErrNoSession
	}
	b.summaries = append(b.summaries, *s)
	return nil
}

// Summaries returns a copy of the recorded summaries.
func (b *Backend) Summaries() []core.MapSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.MapSummary, len(b.summaries))
	copy(out, b.summaries)
	return out
}

// ExportedFilePath returns the path of the last export, or "".
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
