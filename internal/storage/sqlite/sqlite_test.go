package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/internal/database"
	"github.com/fates3gx/sdk/internal/storage"
	gormstorage "github.com/fates3gx/sdk/internal/storage/gorm"
	"github.com/fates3gx/sdk/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func TestEndSession_DumpsToDisk(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "fates.db")
	b, err := New(Config{DumpPath: dump}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.StartSession(&core.Session{ID: "sqlite-session"}))
	require.NoError(t, b.RecordMapSummary(&core.MapSummary{SessionID: "sqlite-session", Generation: 1, TotalTurns: 9}))
	require.NoError(t, b.EndSession())
	require.NoError(t, b.Close())

	_, err = os.Stat(dump)
	require.NoError(t, err)

	db, err := database.GetSqliteDB(dump)
	require.NoError(t, err)
	reader := gormstorage.New(gormstorage.Dependencies{DB: db})
	got, err := reader.MapSummaries("sqlite-session")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(9), got[0].TotalTurns)
}

func TestDump_NoPath(t *testing.T) {
	b, err := New(Config{}, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Dump())
	assert.NoError(t, b.Close())
}
