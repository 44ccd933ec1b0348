// Package combat runs the damage and post-battle HP modifier pipelines.
package combat

import (
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/pkg/core"
)

// MaxModifiers is the capacity of each pipeline.
const MaxModifiers = 8

// Service owns both pipelines.
type Service struct {
	rt     *state.Runtime
	logger diag.Logger

	damage     *Pipeline[core.DamageContext]
	postBattle *Pipeline[core.PostBattleHpContext]
}

// New creates a service reading map and turn snapshots from rt.
func New(rt *state.Runtime, logger diag.Logger) *Service {
	return &Service{
		rt:         rt,
		logger:     diag.OrNop(logger),
		damage:     NewPipeline[core.DamageContext]("damage", MaxModifiers),
		postBattle: NewPipeline[core.PostBattleHpContext]("postBattleHp", MaxModifiers),
	}
}

// RegisterDamageModifier adds a final damage modifier.
func (s *Service) RegisterDamageModifier(fn Modifier[core.DamageContext]) bool {
	return register(s.logger, s.damage, fn)
}

// RegisterPostBattleHpModifier adds a post-battle HP modifier.
func (s *Service) RegisterPostBattleHpModifier(fn Modifier[core.PostBattleHpContext]) bool {
	return register(s.logger, s.postBattle, fn)
}

func register[C any](logger diag.Logger, p *Pipeline[C], fn Modifier[C]) bool {
	if fn == nil {
		return false
	}
	if !p.Register(fn) {
		logger.Warn("modifier capacity full", "pipeline", p.Name(), "capacity", p.Cap())
		return false
	}
	logger.Info("modifier registered", "pipeline", p.Name(), "n", p.Len())
	return true
}

// ApplyDamageModifiers runs the damage pipeline for one final damage value.
// With no modifiers the base value is only clamped.
func (s *Service) ApplyDamageModifiers(root, calc, attacker, defender core.Handle, base int32) int32 {
	if s.damage.Len() == 0 {
		return max(base, 0)
	}
	side := s.rt.ResolveSide()
	ctx := core.DamageContext{
		Map:        s.rt.MapContext(),
		Turn:       s.rt.TurnContext(side),
		Attacker:   attacker,
		Defender:   defender,
		Root:       root,
		Calc:       calc,
		BaseDamage: base,
	}
	return s.damage.Apply(ctx, base)
}

// ApplyPostBattleHp runs the post-battle HP pipeline for damage about to be
// applied to unit.
func (s *Service) ApplyPostBattleHp(unit core.Handle, base int32) int32 {
	if s.postBattle.Len() == 0 {
		return max(base, 0)
	}
	side := s.rt.ResolveSide()
	ctx := core.PostBattleHpContext{
		Map:        s.rt.MapContext(),
		Turn:       s.rt.TurnContext(side),
		Unit:       unit,
		BaseAmount: base,
	}
	return s.postBattle.Apply(ctx, base)
}

// DamageModifiers returns the number of registered damage modifiers.
func (s *Service) DamageModifiers() int { return s.damage.Len() }

// PostBattleHpModifiers returns the number of registered post-battle modifiers.
func (s *Service) PostBattleHpModifiers() int { return s.postBattle.Len() }
