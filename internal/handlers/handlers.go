// Package handlers implements the callbacks installed at each patch point.
// They decode raw call data, forward to the original function and feed the
// engine.
package handlers

import (
	"github.com/fates3gx/sdk/internal/combat"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/engine"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/pkg/core"
)

// Invoker calls a function of the host binary directly.
type Invoker interface {
	Invoke(addr uint32, args ...uint32) uint32
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(addr uint32, args ...uint32) uint32

func (f InvokerFunc) Invoke(addr uint32, args ...uint32) uint32 { return f(addr, args...) }

// Dependencies holds everything the callbacks need.
type Dependencies struct {
	Memory  memory.ReadWriter
	Runtime *state.Runtime
	Engine  *engine.Engine
	Combat  *combat.Service
	Invoker Invoker
	Logger  diag.Logger
}

// Service owns the callback table.
type Service struct {
	mem     memory.ReadWriter
	rt      *state.Runtime
	eng     *engine.Engine
	combat  *combat.Service
	invoker Invoker
	logger  diag.Logger

	callbacks [hooks.Count]hooks.Callback
	logs      [hooks.Count]*diag.Budget
	dumps     *diag.Budget
}

// per-hook process-lifetime log caps; zero means the hook never logs
var logCaps = [hooks.Count]uint32{
	hooks.BTLHitCalcMain:              64,
	hooks.BTLCritCalcMain:             64,
	hooks.BTLFinalDamagePre:           16,
	hooks.BTLFinalDamagePost:          64,
	hooks.SEQHpDamage:                 64,
	hooks.UNITHpDamage:                64,
	hooks.UNITUpdateCloneHP:           64,
	hooks.HPKillCheck:                 64,
	hooks.SEQHpDamageHelper:           64,
	hooks.SEQItemGain:                 64,
	hooks.MAPProcSkillDamage:          64,
	hooks.MAPProcTerrainDamage:        64,
	hooks.MAPProcTrickDamage:          64,
	hooks.EVENTActionEnd:              16,
	hooks.BTLAttackStanceCheck:        16,
	hooks.BTLAttackStanceApplySupport: 16,
	hooks.BTLSkillEffectApply:         64,
	hooks.SEQTurnBegin:                64,
	hooks.SEQTurnEnd:                  64,
	hooks.SEQMapEnd:                   64,
	hooks.SEQItemUse:                  64,
	hooks.UNITLevelUp:                 32,
	hooks.UNITSkillLearn:              32,
	hooks.SEQUnitMove:                 64,
}

// Situation dumps: how many per session, and how many words each.
const (
	situationDumps     = 8
	situationDumpWords = 16
)

// NewService builds the callback table.
func NewService(deps Dependencies) *Service {
	s := &Service{
		mem:     deps.Memory,
		rt:      deps.Runtime,
		eng:     deps.Engine,
		combat:  deps.Combat,
		invoker: deps.Invoker,
		logger:  diag.OrNop(deps.Logger),
		dumps:   diag.NewBudget(situationDumps),
	}
	for i := range s.logs {
		s.logs[i] = diag.NewBudget(logCaps[i])
	}

	s.callbacks = [hooks.Count]hooks.Callback{
		hooks.BTLHitCalcMain:              s.hitCalcMain,
		hooks.BTLCritCalcMain:             s.critCalcMain,
		hooks.BTLFinalDamagePre:           s.finalDamagePre,
		hooks.BTLFinalDamagePost:          s.finalDamagePost,
		hooks.BTLGuardGaugeAdd:            s.passThrough(hooks.BTLGuardGaugeAdd, 3),
		hooks.BTLGuardGaugeSpend:          s.passThrough(hooks.BTLGuardGaugeSpend, 3),
		hooks.SEQHpDamage:                 s.battleUpdateHp,
		hooks.UNITHpDamage:                s.unitHpDamage,
		hooks.UNITUpdateCloneHP:           s.updateCloneHP,
		hooks.HPKillCheck:                 s.killCheck,
		hooks.SEQHpDamageHelper:           s.hpDamageHelper,
		hooks.SEQItemGain:                 s.itemGain,
		hooks.MAPProcSkillDamage:          s.mapProc(hooks.MAPProcSkillDamage),
		hooks.MAPProcTerrainDamage:        s.mapProc(hooks.MAPProcTerrainDamage),
		hooks.MAPProcTrickDamage:          s.mapProc(hooks.MAPProcTrickDamage),
		hooks.EVENTActionEnd:              s.actionEnd,
		hooks.BTLAttackStanceCheck:        s.attackStanceCheck,
		hooks.BTLAttackStanceApplySupport: s.attackStanceApplySupport,
		hooks.HUDBattleHPGaugeUpdate:      s.passThrough(hooks.HUDBattleHPGaugeUpdate, 2),
		hooks.BTLSkillEffectApply:         s.skillEffectApply,
		hooks.SYSRng32:                    s.rng32,
		hooks.SEQTurnBegin:                s.turnBegin,
		hooks.SEQTurnEnd:                  s.turnEnd,
		hooks.SEQMapEnd:                   s.mapEnd,
		hooks.SEQMapStart:                 s.mapStart,
		hooks.SEQItemUse:                  s.itemUse,
		hooks.UNITLevelUp:                 s.levelUp,
		hooks.UNITSkillLearn:              s.skillLearn,
		hooks.SEQUnitMove:                 s.unitMove,
	}
	return s
}

// Resolve returns the callback for id. It satisfies installer.Resolver.
func (s *Service) Resolve(id hooks.ID) (hooks.Callback, bool) {
	if !id.Valid() {
		return nil, false
	}
	cb := s.callbacks[id]
	return cb, cb != nil
}

// enter counts one hit of id and returns the running total.
func (s *Service) enter(id hooks.ID) uint32 {
	return s.rt.CountHook(id)
}

// logf emits msg while id still has log budget.
func (s *Service) logf(id hooks.ID, msg string, kv ...any) {
	b := s.logs[id]
	if !b.Take() {
		return
	}
	kv = append(kv, "hook", id.Name(), "n", b.Used())
	s.logger.Debug(msg, kv...)
}

// hpLogf is logf gated by the HP apply toggle.
func (s *Service) hpLogf(id hooks.ID, msg string, kv ...any) {
	if !s.rt.HpApplyLog() {
		return
	}
	s.logf(id, msg, kv...)
}

func (s *Service) word(addr uint32) uint32 {
	if addr == 0 {
		return 0
	}
	v, err := memory.ReadU32(s.mem, addr)
	if err != nil {
		return 0
	}
	return v
}

func args(c hooks.Call, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = c.Arg(i)
	}
	return out
}

// passThrough forwards n arguments unchanged.
func (s *Service) passThrough(id hooks.ID, n int) hooks.Callback {
	return func(c hooks.Call) uint32 {
		s.enter(id)
		return c.Original(args(c, n)...)
	}
}

// turnSide follows the turn-state pointer chain. Any break in the chain or a
// value above 3 yields SideUnknown.
func (s *Service) turnSide() core.TurnSide {
	raw, ok := s.turnSideRaw()
	if !ok {
		return core.SideUnknown
	}
	return core.SideFromRaw(uint32(raw))
}

func (s *Service) turnSideRaw() (uint8, bool) {
	p1 := s.word(turnBranchStateVA)
	if p1 == 0 {
		return 0, false
	}
	p2 := s.word(p1)
	if p2 == 0 {
		return 0, false
	}
	idx, err := memory.ReadU8(s.mem, p2+0x08)
	if err != nil {
		return 0, false
	}
	side, err := memory.ReadU8(s.mem, p2+uint32(idx))
	if err != nil {
		return 0, false
	}
	return side, true
}
