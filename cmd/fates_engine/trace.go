package main

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fates3gx/sdk/internal/engine"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/pkg/core"
)

// traceEvent is one recorded engine observation. Only the fields relevant to
// Kind are read.
type traceEvent struct {
	Kind string `yaml:"kind"`

	Seq   hooks.Word `yaml:"seq"`
	Side  *int       `yaml:"side"`
	Unit  hooks.Word `yaml:"unit"`
	Dead0 hooks.Word `yaml:"dead0"`
	Dead1 hooks.Word `yaml:"dead1"`
	Flags hooks.Word `yaml:"flags"`

	Source hooks.Word `yaml:"source"`
	Target hooks.Word `yaml:"target"`
	Amount int32      `yaml:"amount"`
	HP     int32      `yaml:"hp"`

	State  hooks.Word `yaml:"state"`
	Raw    hooks.Word `yaml:"raw"`
	Bound  uint32     `yaml:"bound"`
	Result int32      `yaml:"result"`
	Rate   int32      `yaml:"rate"`
	Level  uint8      `yaml:"level"`
	Skill  uint16     `yaml:"skill"`
}

type traceDoc struct {
	Events []traceEvent `yaml:"events"`
}

func (ev traceEvent) side() core.TurnSide {
	if ev.Side == nil || *ev.Side < 0 {
		return core.SideUnknown
	}
	return core.SideFromRaw(uint32(*ev.Side))
}

// decodeTrace reads a YAML event trace and checks every kind up front so a
// typo does not abort a replay halfway through.
func decodeTrace(r io.Reader) ([]traceEvent, error) {
	var doc traceDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding trace: %w", err)
	}
	for i, ev := range doc.Events {
		if _, ok := traceKinds[ev.Kind]; !ok {
			return nil, fmt.Errorf("event %d: unknown kind %q", i, ev.Kind)
		}
	}
	return doc.Events, nil
}

func loadTrace(path string) ([]traceEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeTrace(f)
}

var traceKinds = map[string]func(*engine.Engine, traceEvent){
	"mapStart": func(e *engine.Engine, ev traceEvent) {
		e.MapStart(core.Handle(ev.Seq), ev.side())
	},
	"turnBegin": func(e *engine.Engine, ev traceEvent) {
		e.TurnBegin(ev.side())
	},
	"turnEnd": func(e *engine.Engine, ev traceEvent) {
		e.TurnEnd(core.Handle(ev.Seq))
	},
	"mapEnd": func(e *engine.Engine, ev traceEvent) {
		e.MapEnd(core.Handle(ev.Seq), ev.side())
	},
	"kill": func(e *engine.Engine, ev traceEvent) {
		e.Kill(core.KillEvent{
			Seq:   core.Handle(ev.Seq),
			Dead0: core.Handle(ev.Dead0),
			Dead1: core.Handle(ev.Dead1),
			Flags: uint32(ev.Flags),
		})
	},
	"hpSync": func(e *engine.Engine, ev traceEvent) {
		e.UnitHpSync(core.Handle(ev.Unit), ev.HP)
	},
	"hpChange": func(e *engine.Engine, ev traceEvent) {
		e.HpChange(core.HpEvent{
			Source: core.Handle(ev.Source),
			Target: core.Handle(ev.Target),
			Amount: ev.Amount,
			Flags:  uint32(ev.Flags),
		}, ev.side())
	},
	"rng": func(e *engine.Engine, ev traceEvent) {
		raw := uint32(ev.Raw)
		e.Rng(core.Handle(ev.State), raw, ev.Bound, engine.ScaleRng(raw, ev.Bound))
	},
	"hitCalc": func(e *engine.Engine, ev traceEvent) {
		e.HitCalc(ev.Rate, ev.Result)
	},
	"levelUp": func(e *engine.Engine, ev traceEvent) {
		e.LevelUp(core.Handle(ev.Unit), ev.Level, ev.side())
	},
	"skillLearn": func(e *engine.Engine, ev traceEvent) {
		e.SkillLearn(core.Handle(ev.Unit), ev.Skill, uint16(ev.Flags), ev.Result, ev.side())
	},
}

// replayTrace feeds events to e in order and returns how many maps began.
func replayTrace(e *engine.Engine, events []traceEvent) int {
	maps := 0
	for _, ev := range events {
		if ev.Kind == "mapStart" {
			if e.MapStart(core.Handle(ev.Seq), ev.side()) {
				maps++
			}
			continue
		}
		traceKinds[ev.Kind](e, ev)
	}
	return maps
}
