package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fates3gx/sdk/internal/config"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/installer"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/internal/monitor"
	"github.com/fates3gx/sdk/pkg/plugin"
)

var errGuardsFailed = errors.New("guard verification failed")

const usage = `usage: fates_engine <command> [args]

commands:
  catalog [file]                 print the hook catalog
  hookcheck <code.bin> [catalog] verify guard words against a code dump
  replay <trace.yaml>            drive the engine with a recorded trace
  version                        print the version`

// run dispatches one subcommand and returns the process exit code.
func run(args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return 2
	}

	var err error
	switch strings.ToLower(args[0]) {
	case "catalog":
		err = runCatalog(args[1:], out)
	case "hookcheck":
		err = runHookCheck(args[1:], out)
	case "replay":
		err = runReplay(args[1:], out)
	case "version":
		fmt.Fprintf(out, "%s %s (built %s)\n", ToolName, CurrentVersion, BuildDate)
	default:
		fmt.Fprintf(out, "unknown command %q\n\n%s\n", args[0], usage)
		return 2
	}
	if err != nil {
		Logger.Error("command failed", "command", args[0], "error", err)
		fmt.Fprintln(out, "error:", err)
		return 1
	}
	return 0
}

// loadCatalog reads path, or the configured catalog file, or the built-in
// table when both are empty.
func loadCatalog(path string) (*hooks.Catalog, error) {
	if path == "" {
		path = config.GetHooksConfig().CatalogFile
	}
	if path == "" {
		return hooks.Default(), nil
	}
	c, err := hooks.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	Logger.Info("catalog loaded", "path", path, "entries", c.Len())
	return c, nil
}

func runCatalog(args []string, out io.Writer) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	catalog, err := loadCatalog(path)
	if err != nil {
		return err
	}
	mon := monitor.NewService(monitor.Dependencies{Catalog: catalog, Logger: Logger})
	for _, line := range mon.DumpHookTable() {
		fmt.Fprintln(out, line)
	}
	return nil
}

func runHookCheck(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("hookcheck needs a code dump path")
	}
	img, err := memory.LoadImage(args[0], hooks.CodeBase)
	if err != nil {
		return err
	}
	var catalogPath string
	if len(args) > 1 {
		catalogPath = args[1]
	}
	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	var ok, failed, unguarded int
	for _, d := range catalog.All() {
		res, err := installer.VerifyGuard(img, d)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(out, "FAIL  %-28s %s\n", d.Name, err)
		case !res.Checked:
			unguarded++
			fmt.Fprintf(out, "SKIP  %-28s VA=0x%08X no guard\n", d.Name, res.Address)
		default:
			ok++
			fmt.Fprintf(out, "OK    %-28s VA=0x%08X stability=%s\n", d.Name, res.Address, d.Stability)
		}
	}
	fmt.Fprintf(out, "%d ok, %d failed, %d unguarded\n", ok, failed, unguarded)
	Logger.Info("hookcheck finished",
		"image", args[0],
		"size", img.Size(),
		"ok", ok,
		"failed", failed,
		"unguarded", unguarded)
	if failed > 0 {
		return fmt.Errorf("%d of %d entries: %w", failed, catalog.Len(), errGuardsFailed)
	}
	return nil
}

// offlinePatcher accepts every redirect without touching code. Replays drive
// the engine directly, so no callback ever runs through it.
type offlinePatcher struct{}

type offlineRedirect struct{}

func (offlinePatcher) Install(installer.Request) (installer.Redirect, error) {
	return offlineRedirect{}, nil
}

func (offlineRedirect) Enable() error  { return nil }
func (offlineRedirect) Disable() error { return nil }

func runReplay(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("replay needs a trace path")
	}
	events, err := loadTrace(args[0])
	if err != nil {
		return err
	}

	backend, err := createStorageBackend(config.GetStorageConfig(), backendDeps{
		Logger:  Logger,
		Console: Console,
	})
	if err != nil {
		return err
	}

	p, err := plugin.New(plugin.Options{
		Memory:  memory.NewSpace(),
		Patcher: offlinePatcher{},
		Runtime: Runtime,
		Backend: backend,
		Engine:  config.GetEngineConfig(),
		Logger:  Logger,
	})
	if err != nil {
		return err
	}
	p.Start()

	maps := replayTrace(p.Engine(), events)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stopErr := p.Stop(ctx)

	fmt.Fprintf(out, "replayed %d events, %d maps\n", len(events), maps)
	if w := p.Writer(); w != nil {
		st := w.Stats()
		fmt.Fprintf(out, "summaries written=%d failed=%d dropped=%d\n", st.Written, st.Failed, st.Dropped)
	}
	for _, line := range p.Monitor().MapState() {
		fmt.Fprintln(out, line)
	}
	return stopErr
}
