// Package modules holds the consumers layered on top of the bus and the
// ordered composition root that registers them.
package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
)

// Module registers its handlers on a bus.
type Module interface {
	Name() string
	Register(b *bus.Bus) bool
}

// Options selects the optional modules.
type Options struct {
	DebugSkills bool
	Example     bool
	// Sink receives one summary per finished map. Nil disables the recorder.
	Sink      Sink
	SessionID string
	Logger    diag.Logger
}

// Set is the registered module graph.
type Set struct {
	HpKill   *HpKill
	Damage   *DamageStats
	Rng      *RngStats
	Hit      *HitStats
	Skills   *Skills
	Example  *Example
	Recorder *Recorder

	order []Module
}

// Modules returns the modules in registration order.
func (s *Set) Modules() []Module { return s.order }

// InitCore builds the modules and registers them in a fixed order. It keeps
// going after a failed registration and reports whether all succeeded.
func InitCore(b *bus.Bus, opts Options) (*Set, bool) {
	logger := diag.OrNop(opts.Logger)

	s := &Set{
		HpKill: NewHpKill(logger),
		Damage: NewDamageStats(logger),
		Rng:    NewRngStats(logger),
		Hit:    NewHitStats(logger),
	}
	s.order = append(s.order, s.HpKill, s.Damage, s.Rng, s.Hit)

	if opts.DebugSkills {
		s.Skills = NewSkills(logger)
		s.order = append(s.order, s.Skills)
	}
	if opts.Example {
		s.Example = NewExample(logger)
		s.order = append(s.order, s.Example)
	}
	if opts.Sink != nil {
		s.Recorder = NewRecorder(opts.SessionID, opts.Sink, s, logger)
		s.order = append(s.order, s.Recorder)
	}

	ok := true
	for _, m := range s.order {
		if !m.Register(b) {
			logger.Warn("module registration failed", "module", m.Name())
			ok = false
		}
	}
	if ok {
		logger.Info("core modules registered", "count", len(s.order))
	}
	return s, ok
}

// registerAll reports whether every registration in regs succeeded.
func registerAll(regs ...bool) bool {
	for _, ok := range regs {
		if !ok {
			return false
		}
	}
	return true
}
