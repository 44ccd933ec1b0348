package modules

import (
	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/pkg/core"
)

// Example is a reference consumer that only logs what it receives.
type Example struct {
	logger diag.Logger
}

func NewExample(logger diag.Logger) *Example {
	return &Example{logger: diag.OrNop(logger)}
}

func (m *Example) Name() string { return "example" }

func (m *Example) Register(b *bus.Bus) bool {
	return registerAll(
		b.RegisterMapBeginHandler(func(mc core.MapContext) {
			m.logger.Info("example map begin",
				"seq", mc.SeqRoot.String(), "gen", mc.Generation,
				"start", mc.StartSide.String(), "current", mc.CurrentSide.String(),
				"totalTurns", mc.TotalTurns, "kills", mc.KillEvents)
		}),
		b.RegisterKillHandler(func(kc core.KillContext) {
			m.logger.Info("example kill",
				"seq", kc.Event.Seq.String(), "flags", kc.Event.Flags,
				"dead0", kc.Event.Dead0.String(), "dead1", kc.Event.Dead1.String(),
				"side", kc.Turn.Side.String(), "gen", kc.Map.Generation)
		}),
		b.RegisterHpChangeHandler(func(hc core.HpChangeContext) {
			m.logger.Debug("example hp change",
				"src", hc.Event.Source.String(), "tgt", hc.Event.Target.String(),
				"amount", hc.Event.Amount, "flags", hc.Event.Flags,
				"side", hc.Turn.Side.String(), "gen", hc.Map.Generation)
		}),
		b.RegisterSkillLearnHandler(func(sc core.SkillLearnContext) {
			m.logger.Info("example skill learn",
				"unit", sc.Unit.String(), "skill", sc.SkillID, "flags", sc.Flags,
				"result", sc.Result, "side", sc.Turn.Side.String())
		}),
	)
}
