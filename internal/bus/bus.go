// Package bus is the typed, fixed-capacity publish/subscribe layer between
// event synthesis and consumer modules.
package bus

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

// Capacities per family.
const (
	MapBeginCapacity   = 8
	MapEndCapacity     = 8
	TurnBeginCapacity  = 8
	TurnEndCapacity    = 8
	KillCapacity       = 8
	HpChangeCapacity   = 16
	RngCapacity        = 4
	HitCalcCapacity    = 8
	LevelUpCapacity    = 4
	SkillLearnCapacity = 4
	ItemGainCapacity   = 4
)

// Bus holds one Family per event kind.
type Bus struct {
	mapBegin   *Family[core.MapContext]
	mapEnd     *Family[core.MapEndContext]
	turnBegin  *Family[core.TurnContext]
	turnEnd    *Family[core.TurnEndContext]
	kill       *Family[core.KillContext]
	hpChange   *Family[core.HpChangeContext]
	rng        *Family[core.RngContext]
	hitCalc    *Family[core.HitCalcContext]
	levelUp    *Family[core.LevelUpContext]
	skillLearn *Family[core.SkillLearnContext]
	itemGain   *Family[core.ItemGainContext]

	logger     diag.Logger
	dispatched metric.Int64Counter
	rejected   metric.Int64Counter
}

// New creates a bus with the standard capacities.
func New(logger diag.Logger) (*Bus, error) {
	b := &Bus{
		mapBegin:   NewFamily[core.MapContext](core.EventMapBegin.String(), MapBeginCapacity),
		mapEnd:     NewFamily[core.MapEndContext](core.EventMapEnd.String(), MapEndCapacity),
		turnBegin:  NewFamily[core.TurnContext](core.EventTurnBegin.String(), TurnBeginCapacity),
		turnEnd:    NewFamily[core.TurnEndContext](core.EventTurnEnd.String(), TurnEndCapacity),
		kill:       NewFamily[core.KillContext](core.EventKill.String(), KillCapacity),
		hpChange:   NewFamily[core.HpChangeContext](core.EventHpChange.String(), HpChangeCapacity),
		rng:        NewFamily[core.RngContext](core.EventRngCall.String(), RngCapacity),
		hitCalc:    NewFamily[core.HitCalcContext](core.EventHitCalc.String(), HitCalcCapacity),
		levelUp:    NewFamily[core.LevelUpContext](core.EventLevelUp.String(), LevelUpCapacity),
		skillLearn: NewFamily[core.SkillLearnContext](core.EventSkillLearn.String(), SkillLearnCapacity),
		itemGain:   NewFamily[core.ItemGainContext](core.EventItemGain.String(), ItemGainCapacity),
		logger:     diag.OrNop(logger),
	}

	m := meter()
	var err error

	b.dispatched, err = m.Int64Counter(
		"bus.events.dispatched",
		metric.WithDescription("Events dispatched per family"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatched counter: %w", err)
	}

	b.rejected, err = m.Int64Counter(
		"bus.registrations.rejected",
		metric.WithDescription("Handler registrations refused for a nil handler or a full family"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}

	return b, nil
}

func register[C any](b *Bus, f *Family[C], fn Handler[C]) bool {
	if f.Register(fn) {
		return true
	}
	b.logger.Warn("handler registration refused", "family", f.Name(), "registered", f.Len(), "capacity", f.Cap())
	b.rejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("family", f.Name())))
	return false
}

func dispatch[C any](b *Bus, f *Family[C], c C) {
	if f.Dispatch(c) > 0 {
		b.dispatched.Add(context.Background(), 1, metric.WithAttributes(attribute.String("family", f.Name())))
	}
}

func (b *Bus) RegisterMapBeginHandler(fn Handler[core.MapContext]) bool {
	return register(b, b.mapBegin, fn)
}

func (b *Bus) RegisterMapEndHandler(fn Handler[core.MapEndContext]) bool {
	return register(b, b.mapEnd, fn)
}

func (b *Bus) RegisterTurnBeginHandler(fn Handler[core.TurnContext]) bool {
	return register(b, b.turnBegin, fn)
}

func (b *Bus) RegisterTurnEndHandler(fn Handler[core.TurnEndContext]) bool {
	return register(b, b.turnEnd, fn)
}

func (b *Bus) RegisterKillHandler(fn Handler[core.KillContext]) bool {
	return register(b, b.kill, fn)
}

func (b *Bus) RegisterHpChangeHandler(fn Handler[core.HpChangeContext]) bool {
	return register(b, b.hpChange, fn)
}

func (b *Bus) RegisterRngHandler(fn Handler[core.RngContext]) bool {
	return register(b, b.rng, fn)
}

func (b *Bus) RegisterHitCalcHandler(fn Handler[core.HitCalcContext]) bool {
	return register(b, b.hitCalc, fn)
}

func (b *Bus) RegisterLevelUpHandler(fn Handler[core.LevelUpContext]) bool {
	return register(b, b.levelUp, fn)
}

func (b *Bus) RegisterSkillLearnHandler(fn Handler[core.SkillLearnContext]) bool {
	return register(b, b.skillLearn, fn)
}

func (b *Bus) RegisterItemGainHandler(fn Handler[core.ItemGainContext]) bool {
	return register(b, b.itemGain, fn)
}

func (b *Bus) DispatchMapBegin(c core.MapContext) { dispatch(b, b.mapBegin, c) }
func (b *Bus) DispatchMapEnd(c core.MapEndContext) { dispatch(b, b.mapEnd, c) }
func (b *Bus) DispatchTurnBegin(c core.TurnContext) { dispatch(b, b.turnBegin, c) }
func (b *Bus) DispatchTurnEnd(c core.TurnEndContext) { dispatch(b, b.turnEnd, c) }
func (b *Bus) DispatchKill(c core.KillContext) { dispatch(b, b.kill, c) }
func (b *Bus) DispatchHpChange(c core.HpChangeContext) { dispatch(b, b.hpChange, c) }
func (b *Bus) DispatchRng(c core.RngContext) { dispatch(b, b.rng, c) }
func (b *Bus) DispatchHitCalc(c core.HitCalcContext) { dispatch(b, b.hitCalc, c) }
func (b *Bus) DispatchLevelUp(c core.LevelUpContext) { dispatch(b, b.levelUp, c) }
func (b *Bus) DispatchSkillLearn(c core.SkillLearnContext) { dispatch(b, b.skillLearn, c) }
func (b *Bus) DispatchItemGain(c core.ItemGainContext) { dispatch(b, b.itemGain, c) }

// FamilyInfo describes one family's occupancy.
type FamilyInfo struct {
	Name       string
	Registered int
	Capacity   int
}

// Families lists every family with its occupancy.
func (b *Bus) Families() []FamilyInfo {
	info := func(name string, n, c int) FamilyInfo { return FamilyInfo{Name: name, Registered: n, Capacity: c} }
	return []FamilyInfo{
		info(b.mapBegin.Name(), b.mapBegin.Len(), b.mapBegin.Cap()),
		info(b.mapEnd.Name(), b.mapEnd.Len(), b.mapEnd.Cap()),
		info(b.turnBegin.Name(), b.turnBegin.Len(), b.turnBegin.Cap()),
		info(b.turnEnd.Name(), b.turnEnd.Len(), b.turnEnd.Cap()),
		info(b.kill.Name(), b.kill.Len(), b.kill.Cap()),
		info(b.hpChange.Name(), b.hpChange.Len(), b.hpChange.Cap()),
		info(b.rng.Name(), b.rng.Len(), b.rng.Cap()),
		info(b.hitCalc.Name(), b.hitCalc.Len(), b.hitCalc.Cap()),
		info(b.levelUp.Name(), b.levelUp.Len(), b.levelUp.Cap()),
		info(b.skillLearn.Name(), b.skillLearn.Len(), b.skillLearn.Cap()),
		info(b.itemGain.Name(), b.itemGain.Len(), b.itemGain.Cap()),
	}
}
