package postgres

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/internal/config"
	"github.com/fates3gx/sdk/internal/database"
	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestInit_NoConnection(t *testing.T) {
	assert.Error(t, New(Dependencies{}).Init())
}

func TestInit_InjectedDB(t *testing.T) {
	db, err := database.GetSqliteDB(filepath.Join(t.TempDir(), "pg.db"))
	require.NoError(t, err)

	b := New(Dependencies{DB: db})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.False(t, b.Local())
	require.NoError(t, b.StartSession(&core.Session{ID: "pg"}))
	require.NoError(t, b.RecordMapSummary(&core.MapSummary{SessionID: "pg", Generation: 1}))
}

func TestInit_FallsBackToLocalFile(t *testing.T) {
	fallback := filepath.Join(t.TempDir(), "fallback.db")
	mgr := database.NewManager(zerolog.Nop(), config.PostgresConfig{Host: "127.0.0.1", Port: "1"}, fallback)

	b := New(Dependencies{Manager: mgr})
	require.NoError(t, b.Init())
	defer b.Close()

	assert.True(t, b.Local())
	require.NoError(t, b.StartSession(&core.Session{ID: "local"}))
	require.NoError(t, b.EndSession())
}
