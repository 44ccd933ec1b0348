package main

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/fates3gx/sdk/internal/config"
	"github.com/fates3gx/sdk/internal/database"
	"github.com/fates3gx/sdk/internal/influx"
	"github.com/fates3gx/sdk/internal/storage"
	influxstorage "github.com/fates3gx/sdk/internal/storage/influx"
	"github.com/fates3gx/sdk/internal/storage/memory"
	pgstorage "github.com/fates3gx/sdk/internal/storage/postgres"
	sqlitestorage "github.com/fates3gx/sdk/internal/storage/sqlite"
	wsstorage "github.com/fates3gx/sdk/internal/storage/websocket"
)

// backendDeps are the loggers and paths the factory hands to backends.
type backendDeps struct {
	Logger  *slog.Logger
	Console zerolog.Logger
	// SessionFile names a per-session file with the given suffix.
	SessionFile func(suffix string) string
}

// createStorageBackend builds the summary backend named by storageCfg.Type.
// "none" returns a nil backend, which disables the recorder.
func createStorageBackend(storageCfg config.StorageConfig, deps backendDeps) (storage.Backend, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SessionFile == nil {
		deps.SessionFile = sessionFile
	}

	switch storageCfg.Type {
	case "none":
		deps.Logger.Info("Storage disabled, map summaries are not recorded")
		return nil, nil

	case "postgres":
		mgr := database.NewManager(deps.Console, config.GetPostgresConfig(), deps.SessionFile(".db"))
		deps.Logger.Info("Postgres storage backend initialized")
		return pgstorage.New(pgstorage.Dependencies{
			Manager: mgr,
			Logger:  deps.Logger,
		}), nil

	case "sqlite":
		dumpPath := storageCfg.SQLite.DumpPath
		if dumpPath == "" {
			dumpPath = deps.SessionFile(".db")
		}
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: storageCfg.SQLite.DumpInterval,
			DumpPath:     dumpPath,
		}, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		deps.Logger.Info("SQLite storage backend initialized", "dumpPath", dumpPath)
		return backend, nil

	case "influx":
		influxCfg := config.GetInfluxConfig()
		mgr := influx.NewManager(deps.Console, influxCfg, deps.SessionFile(".influx.gz"))
		deps.Logger.Info("InfluxDB storage backend initialized", "url", mgr.ServerURL(), "bucket", influxCfg.Bucket)
		return influxstorage.New(mgr, influxCfg.Bucket), nil

	case "websocket":
		wsCfg := config.GetWebSocketConfig()
		deps.Logger.Info("WebSocket storage backend initialized", "url", wsCfg.URL)
		return wsstorage.New(wsstorage.Config{
			URL:    wsCfg.URL,
			Secret: wsCfg.Secret,
		}, deps.Logger), nil

	case "", "memory":
		deps.Logger.Info("Memory storage backend initialized", "outputDir", storageCfg.Memory.OutputDir)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}
