package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/fates3gx/sdk/internal/config"
	"github.com/fates3gx/sdk/internal/logging"
	intOtel "github.com/fates3gx/sdk/internal/otel"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/pkg/plugin"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = plugin.Version
	BuildDate      string = "unknown"

	ToolName string = "fates_engine"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// Console is the zerolog console logger used by the connection managers
	Console zerolog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// Runtime is shared between the log context provider and the replayed plug-in
	Runtime *state.Runtime

	SessionStartTime time.Time = time.Now()

	logFile *os.File
)

func main() {
	configDir := os.Getenv("FATES_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	if err := setup(configDir, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := run(os.Args[1:], os.Stdout)
	shutdown()
	os.Exit(code)
}

// setup loads the config and builds the log pipeline: a session log file
// under logsDir, the OTel provider and a zerolog console for the managers.
func setup(configDir string, console io.Writer) error {
	if err := config.Load(configDir); err != nil {
		return err
	}

	Console = zerolog.New(zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}).
		With().Timestamp().Str("tool", ToolName).Logger()

	logsDir := config.GetString("logsDir")
	var file io.Writer
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			Console.Warn().Err(err).Str("dir", logsDir).Msg("cannot create logs dir, logging to stdout")
		} else {
			path := logging.LogFilePath(logsDir, ToolName, SessionStartTime)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				Console.Warn().Err(err).Str("path", path).Msg("cannot open log file, logging to stdout")
			} else {
				logFile = f
				file = f
			}
		}
	}

	var err error
	OTelProvider, err = intOtel.New(intOtel.ConfigFrom(config.GetOTelConfig(), file))
	if err != nil {
		Console.Warn().Err(err).Msg("OpenTelemetry disabled")
		OTelProvider = nil
	}

	Runtime = state.New()
	SlogManager = logging.NewSlogManager()
	SlogManager.SetContextProvider(logging.RuntimeProvider(Runtime))
	SlogManager.Setup(file, config.GetString("logLevel"), OTelProvider.LoggerProvider())
	Logger = SlogManager.Logger()

	Logger.Info("fates_engine starting",
		"version", CurrentVersion,
		"buildDate", BuildDate,
		"configDir", configDir,
		"logsDir", logsDir)
	return nil
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if SlogManager != nil {
		_ = SlogManager.Flush(ctx)
	}
	if err := OTelProvider.Shutdown(ctx); err != nil {
		Console.Warn().Err(err).Msg("OpenTelemetry shutdown")
	}
	if logFile != nil {
		_ = logFile.Close()
	}
}

// sessionFile names a timestamped file next to the session log.
func sessionFile(suffix string) string {
	dir := config.GetString("logsDir")
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", ToolName, SessionStartTime.Format("20060102_150405"), suffix))
}
