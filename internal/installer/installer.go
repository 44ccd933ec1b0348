// Package installer activates catalog entries by stability tier. Each entry's
// target is verified against its guard words before a redirect is requested
// from the external patch capability.
package installer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
)

// Request is what the patch capability needs to install one redirect.
type Request struct {
	ID        hooks.ID
	Name      string
	Canonical uint32 // mode bit cleared, naturally aligned
	Target    uint32 // odd for Thumb, even for ARM
	Thumb     bool
	Callback  hooks.Callback
}

// Redirect is an installed patch.
type Redirect interface {
	Enable() error
	Disable() error
}

// Patcher installs redirects. It is provided by the host.
type Patcher interface {
	Install(req Request) (Redirect, error)
}

// Resolver maps a hook identity to its callback.
type Resolver interface {
	Resolve(id hooks.ID) (hooks.Callback, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id hooks.ID) (hooks.Callback, bool)

func (f ResolverFunc) Resolve(id hooks.ID) (hooks.Callback, bool) { return f(id) }

// State is the lifecycle of one interception handle.
type State uint8

const (
	Uninitialized State = iota
	Initialized
	NotInstalled
	GuardFailed
	Installed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case NotInstalled:
		return "not-installed"
	case GuardFailed:
		return "guard-failed"
	case Installed:
		return "installed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

type handle struct {
	state    State
	enabled  bool
	redirect Redirect
}

// Status is a read-only view of one handle.
type Status struct {
	ID      hooks.ID
	Name    string
	State   State
	Enabled bool
}

// Report summarizes one Install call.
type Report struct {
	Tier             hooks.Stability
	Installed        []hooks.ID
	AlreadyInstalled []hooks.ID
	NoHandler        []hooks.ID
	GuardFailed      []hooks.ID
	PatchFailed      []hooks.ID
}

// Installer owns one handle per hook identity.
type Installer struct {
	catalog  *hooks.Catalog
	mem      memory.Reader
	patcher  Patcher
	resolver Resolver
	logger   diag.Logger

	handles     [hooks.Count]handle
	initialized bool

	installed   metric.Int64Counter
	skipped     metric.Int64Counter
	guardFailed metric.Int64Counter
}

// New creates an installer. Handles stay Uninitialized until Initialize.
func New(catalog *hooks.Catalog, mem memory.Reader, patcher Patcher, resolver Resolver, logger diag.Logger) (*Installer, error) {
	in := &Installer{
		catalog:  catalog,
		mem:      mem,
		patcher:  patcher,
		resolver: resolver,
		logger:   diag.OrNop(logger),
	}

	m := meter()
	var err error

	in.installed, err = m.Int64Counter(
		"installer.hooks.installed",
		metric.WithDescription("Hooks installed and enabled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating installed counter: %w", err)
	}

	in.skipped, err = m.Int64Counter(
		"installer.hooks.skipped",
		metric.WithDescription("Hooks skipped for a missing handler or a patch failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	in.guardFailed, err = m.Int64Counter(
		"installer.hooks.guard_failed",
		metric.WithDescription("Hooks left uninstalled after a guard mismatch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating guard failure counter: %w", err)
	}

	return in, nil
}

// Initialize default-constructs every handle exactly once.
func (in *Installer) Initialize() {
	if in.initialized {
		return
	}
	in.initialized = true
	for i := range in.handles {
		in.handles[i] = handle{state: Initialized}
	}
}

// Install activates every catalog row of the given tier. A missing handler,
// a guard mismatch or a patch failure skips that row only. Rows that are
// already installed are left alone.
func (in *Installer) Install(tier hooks.Stability) Report {
	in.Initialize()
	rep := Report{Tier: tier}
	ctx := context.Background()

	in.logger.Info("install begin", "tier", tier.String())
	for _, d := range in.catalog.Tier(tier) {
		h := &in.handles[d.ID]
		attrs := metric.WithAttributes(attribute.String("hook", d.Name))

		if h.state == Installed {
			rep.AlreadyInstalled = append(rep.AlreadyInstalled, d.ID)
			continue
		}

		cb, ok := in.resolver.Resolve(d.ID)
		if !ok || cb == nil {
			in.logger.Warn("no handler for hook", "hook", d.Name, "id", int(d.ID))
			h.state = NotInstalled
			rep.NoHandler = append(rep.NoHandler, d.ID)
			in.skipped.Add(ctx, 1, attrs)
			continue
		}

		if _, err := VerifyGuard(in.mem, d); err != nil {
			in.logger.Warn("guard check failed; skipping", "hook", d.Name, "error", err)
			h.state = GuardFailed
			rep.GuardFailed = append(rep.GuardFailed, d.ID)
			in.guardFailed.Add(ctx, 1, attrs)
			continue
		}

		req := Request{
			ID:        d.ID,
			Name:      d.Name,
			Canonical: d.Canonical(),
			Target:    d.CallTarget(),
			Thumb:     d.Thumb,
			Callback:  cb,
		}
		in.logger.Debug("installing hook",
			"hook", d.Name,
			"raw", fmt.Sprintf("0x%08X", req.Canonical),
			"target", fmt.Sprintf("0x%08X", req.Target),
			"thumb", d.Thumb)

		if err := in.activate(h, req); err != nil {
			in.logger.Error("hook install failed", "hook", d.Name, "error", err)
			h.state = NotInstalled
			rep.PatchFailed = append(rep.PatchFailed, d.ID)
			in.skipped.Add(ctx, 1, attrs)
			continue
		}

		rep.Installed = append(rep.Installed, d.ID)
		in.installed.Add(ctx, 1, attrs)
		in.logger.Info("hook installed", "hook", d.Name)
	}
	in.logger.Info("install end",
		"tier", tier.String(),
		"installed", len(rep.Installed),
		"guardFailed", len(rep.GuardFailed),
		"noHandler", len(rep.NoHandler),
		"patchFailed", len(rep.PatchFailed))
	return rep
}

// activate leaves h either installed and enabled, or without a redirect.
func (in *Installer) activate(h *handle, req Request) error {
	r, err := in.patcher.Install(req)
	if err != nil {
		return fmt.Errorf("installing redirect: %w", err)
	}
	if err := r.Enable(); err != nil {
		if derr := r.Disable(); derr != nil {
			in.logger.Error("rollback disable failed", "hook", req.Name, "error", derr)
		}
		return fmt.Errorf("enabling redirect: %w", err)
	}
	h.redirect = r
	h.state = Installed
	h.enabled = true
	return nil
}

// InstallCore installs the Core tier.
func (in *Installer) InstallCore() Report { return in.Install(hooks.Core) }

// InstallOptional installs the Optional tier. Most of these rows are
// unverified candidates.
func (in *Installer) InstallOptional() Report { return in.Install(hooks.Optional) }

// InstallAll installs the default set, which is the Core tier only.
func (in *Installer) InstallAll() Report { return in.InstallCore() }

// EnableAll enables every installed handle regardless of tier.
func (in *Installer) EnableAll() { in.toggleAll(true) }

// DisableAll disables every installed handle regardless of tier.
func (in *Installer) DisableAll() { in.toggleAll(false) }

func (in *Installer) toggleAll(on bool) {
	for i := range in.handles {
		h := &in.handles[i]
		if h.state != Installed || h.redirect == nil {
			continue
		}
		var err error
		if on {
			err = h.redirect.Enable()
		} else {
			err = h.redirect.Disable()
		}
		if err != nil {
			in.logger.Error("toggle failed", "hook", hooks.ID(i).Name(), "enable", on, "error", err)
			continue
		}
		h.enabled = on
	}
}

// Status returns the handle state of id.
func (in *Installer) Status(id hooks.ID) (Status, bool) {
	if !id.Valid() {
		return Status{}, false
	}
	h := in.handles[id]
	return Status{ID: id, Name: id.Name(), State: h.state, Enabled: h.enabled}, true
}

// Statuses returns every handle in identity order.
func (in *Installer) Statuses() []Status {
	out := make([]Status, 0, hooks.Count)
	for i := range in.handles {
		s, _ := in.Status(hooks.ID(i))
		out = append(out, s)
	}
	return out
}
