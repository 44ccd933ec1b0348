// Package postgres implements the storage.Backend interface on PostgreSQL,
// falling back to a local SQLite file when the server is unreachable.
package postgres

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/fates3gx/sdk/internal/database"
	gormstorage "github.com/fates3gx/sdk/internal/storage/gorm"
)

// Dependencies holds all dependencies for the postgres backend. When DB is
// nil Init connects through Manager.
type Dependencies struct {
	DB      *gorm.DB
	Manager *database.Manager
	Logger  *slog.Logger
}

// Backend embeds the GORM backend and owns the connection.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
}

// New creates a new postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: deps.DB, Logger: deps.Logger}),
		deps:    deps,
	}
}

// Init connects if needed and migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		if b.deps.Manager == nil {
			return fmt.Errorf("postgres backend: no database and no manager")
		}
		if err := b.deps.Manager.Connect(); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.deps.DB = b.deps.Manager.DB
		b.Backend.SetDB(b.deps.DB)
		if b.deps.Manager.ShouldSaveLocal {
			b.deps.Logger.Warn("Postgres unavailable, summaries go to the local SQLite file",
				"path", b.deps.Manager.SqliteFilePath)
		}
	}
	return b.Backend.Init()
}

// Close closes a connection opened by Init.
func (b *Backend) Close() error {
	if b.deps.Manager != nil {
		return b.deps.Manager.Close()
	}
	return nil
}

// Local reports whether Init fell back to SQLite.
func (b *Backend) Local() bool {
	return b.deps.Manager != nil && b.deps.Manager.ShouldSaveLocal
}
