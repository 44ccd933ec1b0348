// Package plugin is the host-facing composition root. New wires every
// component once in a fixed order; Start installs the hook tiers and opens
// the storage session; Stop disables every hook and flushes storage.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/combat"
	"github.com/fates3gx/sdk/internal/config"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/engine"
	"github.com/fates3gx/sdk/internal/handlers"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/installer"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/internal/modules"
	"github.com/fates3gx/sdk/internal/monitor"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/internal/worker"
	"github.com/fates3gx/sdk/pkg/core"
)

// Version is stamped on every storage session.
var Version = "0.1.0"

// ErrNoPatcher means Options carried no patch capability.
var ErrNoPatcher = errors.New("plugin: patcher is required")

// Options are the host capabilities and the configuration sections the
// plug-in reads.
type Options struct {
	Memory  memory.ReadWriter
	Patcher installer.Patcher
	Invoker handlers.Invoker

	// Catalog defaults to hooks.Default().
	Catalog *hooks.Catalog
	// Runtime lets the caller build the logger around the runtime first.
	Runtime *state.Runtime
	// Backend receives map summaries. Nil disables the recorder.
	Backend storage.Backend

	Engine config.EngineConfig
	Hooks  config.HooksConfig
	Logger diag.Logger
}

// Plugin is the wired engine.
type Plugin struct {
	logger diag.Logger
	hooks  config.HooksConfig

	catalog   *hooks.Catalog
	rt        *state.Runtime
	bus       *bus.Bus
	engine    *engine.Engine
	combat    *combat.Service
	handlers  *handlers.Service
	installer *installer.Installer
	modules   *modules.Set
	monitor   *monitor.Service

	modulesComplete bool

	backend storage.Backend
	writer  *worker.Manager
	session core.Session
	started bool
}

// New builds the component graph. Modules are registered before any hook is
// installed so no event fires into a half-built bus.
func New(opts Options) (*Plugin, error) {
	if opts.Patcher == nil {
		return nil, ErrNoPatcher
	}
	logger := diag.OrNop(opts.Logger)

	p := &Plugin{
		logger:  logger,
		hooks:   opts.Hooks,
		catalog: opts.Catalog,
		rt:      opts.Runtime,
		backend: opts.Backend,
	}
	if p.catalog == nil {
		p.catalog = hooks.Default()
	}
	if p.rt == nil {
		p.rt = state.New()
	}
	p.rt.SetHpApplyLog(opts.Engine.HpApplyLog)
	p.session = core.Session{
		ID:            uuid.NewString(),
		EngineVersion: Version,
		CodeBase:      core.Handle(hooks.CodeBase),
	}

	var err error
	if p.bus, err = bus.New(logger); err != nil {
		return nil, fmt.Errorf("creating bus: %w", err)
	}
	p.engine = engine.New(p.rt, p.bus, logger)
	p.combat = combat.New(p.rt, logger)
	p.handlers = handlers.NewService(handlers.Dependencies{
		Memory:  opts.Memory,
		Runtime: p.rt,
		Engine:  p.engine,
		Combat:  p.combat,
		Invoker: opts.Invoker,
		Logger:  logger,
	})
	p.installer, err = installer.New(p.catalog, opts.Memory, opts.Patcher, p.handlers, logger)
	if err != nil {
		return nil, fmt.Errorf("creating installer: %w", err)
	}

	modOpts := modules.Options{
		DebugSkills: opts.Engine.DebugSkills,
		Example:     opts.Engine.ExampleModule,
		SessionID:   p.session.ID,
		Logger:      logger,
	}
	if p.backend != nil {
		if p.writer, err = worker.NewManager(p.backend, logger); err != nil {
			return nil, fmt.Errorf("creating summary writer: %w", err)
		}
		modOpts.Sink = p.writer
	}
	p.initModules(modOpts)

	p.monitor = monitor.NewService(monitor.Dependencies{
		Catalog:   p.catalog,
		Memory:    opts.Memory,
		Installer: p.installer,
		Runtime:   p.rt,
		Writer:    p.writer,
		Logger:    logger,
	})
	return p, nil
}

// initModules registers the module set on the bus. A partial registration
// keeps whatever did register.
func (p *Plugin) initModules(opts modules.Options) {
	p.modules, p.modulesComplete = modules.InitCore(p.bus, opts)
	if !p.modulesComplete {
		p.logger.Warn("module composition incomplete, some modules receive no events")
	}
}

// Start resets the runtime, opens the storage session and installs the core
// tier, plus the optional tier when configured. Storage failures only
// disable storage.
func (p *Plugin) Start() []installer.Report {
	if p.started {
		return nil
	}
	p.started = true
	p.rt.Reset()

	if p.backend != nil {
		p.openStorage()
	}

	reports := []installer.Report{p.installer.InstallCore()}
	if p.hooks.InstallOptional {
		reports = append(reports, p.installer.InstallOptional())
	}
	for _, r := range reports {
		p.logger.Info("hook tier installed",
			"tier", r.Tier.String(),
			"installed", len(r.Installed),
			"guardFailed", len(r.GuardFailed),
			"noHandler", len(r.NoHandler),
			"patchFailed", len(r.PatchFailed))
	}
	return reports
}

func (p *Plugin) openStorage() {
	if err := p.backend.Init(); err != nil {
		p.logger.Error("storage init failed, summaries disabled", "error", err)
		p.backend = nil
		_ = p.writer.Stop(context.Background())
		return
	}
	p.session.StartedAt = time.Now().UTC()
	if err := p.backend.StartSession(&p.session); err != nil {
		p.logger.Error("storage session start failed", "session", p.session.ID, "error", err)
	}
	p.writer.Start()
}

// Stop disables every hook, drains the summary writer and closes storage.
func (p *Plugin) Stop(ctx context.Context) error {
	p.installer.DisableAll()
	if p.writer == nil {
		return nil
	}

	var errs []error
	if err := p.writer.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if p.backend != nil {
		if err := p.backend.EndSession(); err != nil && !errors.Is(err, storage.ErrNoSession) {
			errs = append(errs, fmt.Errorf("ending session: %w", err))
		}
		if err := p.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RegisterDamageModifier adds a final damage modifier.
func (p *Plugin) RegisterDamageModifier(fn combat.Modifier[core.DamageContext]) bool {
	return p.combat.RegisterDamageModifier(fn)
}

// RegisterPostBattleHpModifier adds a post-battle HP modifier.
func (p *Plugin) RegisterPostBattleHpModifier(fn combat.Modifier[core.PostBattleHpContext]) bool {
	return p.combat.RegisterPostBattleHpModifier(fn)
}

// EnableAll re-enables every installed hook.
func (p *Plugin) EnableAll() { p.installer.EnableAll() }

// DisableAll disables every installed hook.
func (p *Plugin) DisableAll() { p.installer.DisableAll() }

func (p *Plugin) Bus() *bus.Bus                  { return p.bus }
func (p *Plugin) Runtime() *state.Runtime        { return p.rt }
func (p *Plugin) Engine() *engine.Engine         { return p.engine }
func (p *Plugin) Installer() *installer.Installer { return p.installer }
func (p *Plugin) Modules() *modules.Set          { return p.modules }
func (p *Plugin) Monitor() *monitor.Service      { return p.monitor }
func (p *Plugin) Session() core.Session          { return p.session }

// ModulesComplete reports whether every module in the set registered all of
// its handlers.
func (p *Plugin) ModulesComplete() bool { return p.modulesComplete }

// Writer returns the summary writer, nil without a backend.
func (p *Plugin) Writer() *worker.Manager { return p.writer }

// Callback returns the installed callback for id, for hosts that dispatch
// calls themselves.
func (p *Plugin) Callback(id hooks.ID) (hooks.Callback, bool) {
	return p.handlers.Resolve(id)
}
