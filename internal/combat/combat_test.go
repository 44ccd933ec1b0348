package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/internal/diag"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/pkg/core"
)

func TestPipeline_FoldsInOrderAndClamps(t *testing.T) {
	p := NewPipeline[int]("x", 4)
	p.Register(func(_ int, v int32) int32 { return v * 2 })
	p.Register(func(_ int, v int32) int32 { return v - 25 })

	assert.Equal(t, int32(5), p.Apply(0, 15))
	assert.Equal(t, int32(0), p.Apply(0, 10), "clamped at zero")
}

func TestPipeline_FailClosed(t *testing.T) {
	p := NewPipeline[int]("x", 2)
	id := func(_ int, v int32) int32 { return v + 1 }

	assert.False(t, p.Register(nil))
	assert.True(t, p.Register(id))
	assert.True(t, p.Register(id))
	assert.False(t, p.Register(id))
	assert.Equal(t, int32(2), p.Apply(0, 0))
}

func TestService_NoModifiersOnlyClamps(t *testing.T) {
	s := New(state.New(), diag.Nop{})
	assert.Equal(t, int32(12), s.ApplyDamageModifiers(1, 2, 3, 4, 12))
	assert.Equal(t, int32(0), s.ApplyDamageModifiers(1, 2, 3, 4, -3))
	assert.Equal(t, int32(0), s.ApplyPostBattleHp(3, -1))
}

func TestService_DamageContextSnapshot(t *testing.T) {
	rt := state.New()
	rt.BeginMap(0x10, core.Side0)
	rt.BeginTurn(core.Side0)
	rt.BeginTurn(core.Side1)

	s := New(rt, nil)
	var seen core.DamageContext
	require.True(t, s.RegisterDamageModifier(func(ctx core.DamageContext, v int32) int32 {
		seen = ctx
		return v + 3
	}))

	got := s.ApplyDamageModifiers(0x20, 0x30, 0x40, 0x50, 9)

	assert.Equal(t, int32(12), got)
	assert.Equal(t, core.Side1, seen.Turn.Side)
	assert.Equal(t, uint32(1), seen.Turn.SideTurnIndex)
	assert.Equal(t, uint32(2), seen.Map.TotalTurns)
	assert.Equal(t, core.Handle(0x40), seen.Attacker)
	assert.Equal(t, core.Handle(0x50), seen.Defender)
	assert.Equal(t, core.Handle(0x20), seen.Root)
	assert.Equal(t, core.Handle(0x30), seen.Calc)
	assert.Equal(t, int32(9), seen.BaseDamage)
}

func TestService_InactiveMapResolvesUnknownSide(t *testing.T) {
	s := New(state.New(), nil)
	var side core.TurnSide
	s.RegisterPostBattleHpModifier(func(ctx core.PostBattleHpContext, v int32) int32 {
		side = ctx.Turn.Side
		return v / 2
	})

	assert.Equal(t, int32(4), s.ApplyPostBattleHp(0x40, 8))
	assert.Equal(t, core.SideUnknown, side)
}

func TestService_CapacityPerPipeline(t *testing.T) {
	s := New(state.New(), nil)
	for i := 0; i < MaxModifiers; i++ {
		require.True(t, s.RegisterDamageModifier(func(_ core.DamageContext, v int32) int32 { return v + 1 }))
	}
	assert.False(t, s.RegisterDamageModifier(func(_ core.DamageContext, v int32) int32 { return 0 }))
	assert.True(t, s.RegisterPostBattleHpModifier(func(_ core.PostBattleHpContext, v int32) int32 { return v }))

	assert.Equal(t, int32(MaxModifiers), s.ApplyDamageModifiers(0, 0, 0, 0, 0))
	assert.Equal(t, MaxModifiers, s.DamageModifiers())
	assert.Equal(t, 1, s.PostBattleHpModifiers())
}
