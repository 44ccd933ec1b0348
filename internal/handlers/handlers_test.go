package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/internal/bus"
	"github.com/fates3gx/sdk/internal/combat"
	"github.com/fates3gx/sdk/internal/engine"
	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
	"github.com/fates3gx/sdk/internal/state"
	"github.com/fates3gx/sdk/pkg/core"
)

// fakeCall records what the callback forwarded to the original.
type fakeCall struct {
	args     []uint32
	result   uint32
	forwards [][]uint32
	onCall   func()
}

func (c *fakeCall) Arg(i int) uint32 {
	if i < len(c.args) {
		return c.args[i]
	}
	return 0
}

func (c *fakeCall) Original(args ...uint32) uint32 {
	c.forwards = append(c.forwards, append([]uint32(nil), args...))
	if c.onCall != nil {
		c.onCall()
	}
	return c.result
}

func call(result uint32, args ...uint32) *fakeCall {
	return &fakeCall{args: args, result: result}
}

const (
	heapBase  = 0x32000000
	heapSize  = 0x10000
	dataBase  = 0x003A0000
	chainPtr1 = heapBase + 0x100
	chainPtr2 = heapBase + 0x200
)

type fixture struct {
	svc    *Service
	rt     *state.Runtime
	bus    *bus.Bus
	combat *combat.Service
	heap   *memory.Image
	data   *memory.Image
	rng    []uint32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		heap: memory.NewImage(heapBase, make([]byte, heapSize)),
		data: memory.NewImage(dataBase, make([]byte, 0x10000)),
	}
	b, err := bus.New(nil)
	require.NoError(t, err)
	f.bus = b
	f.rt = state.New()
	f.combat = combat.New(f.rt, nil)

	f.svc = NewService(Dependencies{
		Memory:  memory.NewSpace(f.heap, f.data),
		Runtime: f.rt,
		Engine:  engine.New(f.rt, b, nil),
		Combat:  f.combat,
		Invoker: InvokerFunc(func(addr uint32, args ...uint32) uint32 {
			f.rng = append(f.rng, addr)
			return 0x80000000
		}),
	})
	return f
}

func (f *fixture) put(t *testing.T, addr, v uint32) {
	t.Helper()
	var img *memory.Image
	if f.heap.Contains(addr) {
		img = f.heap
	} else {
		img = f.data
	}
	require.NoError(t, memory.WriteU32(img, addr, v))
}

func (f *fixture) putByte(t *testing.T, addr uint32, v byte) {
	t.Helper()
	_, err := f.heap.WriteMemory(addr, []byte{v})
	require.NoError(t, err)
}

// setSide points the turn-state chain at a byte holding side.
func (f *fixture) setSide(t *testing.T, side byte) {
	t.Helper()
	f.put(t, turnBranchStateVA, chainPtr1)
	f.put(t, chainPtr1, chainPtr2)
	f.putByte(t, chainPtr2+0x08, 0x0C)
	f.putByte(t, chainPtr2+0x0C, side)
}

func (f *fixture) run(id hooks.ID, c hooks.Call) uint32 {
	cb, ok := f.svc.Resolve(id)
	if !ok {
		panic("no callback for " + id.Name())
	}
	return cb(c)
}

func TestResolve_EveryHook(t *testing.T) {
	f := newFixture(t)
	for id := hooks.ID(0); int(id) < hooks.Count; id++ {
		cb, ok := f.svc.Resolve(id)
		assert.True(t, ok, id.Name())
		assert.NotNil(t, cb, id.Name())
	}
	_, ok := f.svc.Resolve(hooks.ID(hooks.Count))
	assert.False(t, ok)
}

func TestEveryCallbackCountsHits(t *testing.T) {
	f := newFixture(t)
	for id := hooks.ID(0); int(id) < hooks.Count; id++ {
		f.run(id, call(0))
		f.run(id, call(0))
		assert.Equal(t, uint32(2), f.rt.HookCount(id), id.Name())
	}
}

func TestTurnSide_ChainBreaksAreUnknown(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, core.SideUnknown, f.svc.turnSide())

	f.setSide(t, 2)
	assert.Equal(t, core.Side2, f.svc.turnSide())

	f.setSide(t, 7)
	assert.Equal(t, core.SideUnknown, f.svc.turnSide())
}

func TestMapAndTurnSequence(t *testing.T) {
	f := newFixture(t)
	f.setSide(t, 0)

	var begins, ends int
	f.bus.RegisterMapBeginHandler(func(core.MapContext) { begins++ })
	f.bus.RegisterMapEndHandler(func(core.MapEndContext) { ends++ })

	const seq = heapBase + 0x1000
	c := call(0, seq)
	f.run(hooks.SEQMapStart, c)
	f.run(hooks.SEQMapStart, call(0, seq))
	assert.Equal(t, 1, begins)
	require.Len(t, c.forwards, 1)
	assert.Equal(t, []uint32{seq}, c.forwards[0])

	f.setSide(t, 1)
	for i := 0; i < 3; i++ {
		f.run(hooks.SEQTurnBegin, call(0))
	}
	l := f.rt.Lifecycle()
	assert.Equal(t, uint32(3), l.TotalTurns)
	assert.Equal(t, uint32(3), l.TurnCount[core.Side1])

	assert.Equal(t, uint32(5), f.run(hooks.SEQMapEnd, call(5, seq)))
	assert.Equal(t, 1, ends)
	assert.False(t, f.rt.Active())
}

func TestTurnBegin_DispatchesBeforeOriginal(t *testing.T) {
	f := newFixture(t)
	f.setSide(t, 1)
	f.run(hooks.SEQMapStart, call(0, heapBase+0x1000))

	var order []string
	f.bus.RegisterTurnBeginHandler(func(core.TurnContext) { order = append(order, "dispatch") })
	c := call(0)
	c.onCall = func() { order = append(order, "original") }
	f.run(hooks.SEQTurnBegin, c)

	assert.Equal(t, []string{"dispatch", "original"}, order)
}

func TestTurnEnd_DispatchesAfterOriginal(t *testing.T) {
	f := newFixture(t)
	var order []string
	f.bus.RegisterTurnEndHandler(func(core.TurnEndContext) { order = append(order, "dispatch") })
	c := call(1, heapBase+0x1000)
	c.onCall = func() { order = append(order, "original") }
	assert.Equal(t, uint32(1), f.run(hooks.SEQTurnEnd, c))
	assert.Equal(t, []string{"original", "dispatch"}, order)
}

func TestKillCheck(t *testing.T) {
	f := newFixture(t)
	f.setSide(t, 1)
	f.run(hooks.SEQMapStart, call(0, heapBase+0x1000))
	f.run(hooks.SEQTurnBegin, call(0))

	var kills []core.KillContext
	f.bus.RegisterKillHandler(func(kc core.KillContext) { kills = append(kills, kc) })

	const calc = heapBase + 0x2000
	f.run(hooks.HPKillCheck, call(0, calc, 0))
	assert.Empty(t, kills, "empty dead slots are not a kill")

	f.put(t, calc+killDead0, heapBase+0x3000)
	c := call(0, calc, 0x44)
	f.run(hooks.HPKillCheck, c)

	require.Len(t, kills, 1)
	assert.Equal(t, core.Handle(calc), kills[0].Event.Seq)
	assert.Equal(t, core.Handle(heapBase+0x3000), kills[0].Event.Dead0)
	assert.Equal(t, core.Side1, kills[0].Turn.Side)
	assert.Equal(t, []uint32{calc, 0x44}, c.forwards[0])
	assert.Equal(t, uint32(1), f.rt.Stats().KillsBySide[core.Side1])

	f.run(hooks.HPKillCheck, call(0, 0, 0))
	assert.Len(t, kills, 1)
}

func TestUpdateCloneHP_DrivesHpChange(t *testing.T) {
	f := newFixture(t)
	f.setSide(t, 0)
	f.run(hooks.SEQMapStart, call(0, heapBase+0x1000))
	f.run(hooks.SEQTurnBegin, call(0))

	var changes []core.HpChangeContext
	f.bus.RegisterHpChangeHandler(func(c core.HpChangeContext) { changes = append(changes, c) })

	const unit = heapBase + 0x4000
	f.putByte(t, unit+unitHP, 30)
	f.run(hooks.UNITUpdateCloneHP, call(0, unit))
	f.putByte(t, unit+unitHP, 21)
	f.run(hooks.UNITUpdateCloneHP, call(0, unit))
	f.run(hooks.UNITUpdateCloneHP, call(0, 0))

	require.Len(t, changes, 1)
	assert.Equal(t, int32(9), changes[0].Event.Amount)
	assert.Equal(t, core.Handle(unit), changes[0].Event.Target)
}

func TestRng32_UsesCoreGenerator(t *testing.T) {
	f := newFixture(t)
	var got core.RngContext
	f.bus.RegisterRngHandler(func(c core.RngContext) { got = c })

	c := call(0xDEAD, heapBase+0x5000, 100)
	assert.Equal(t, uint32(50), f.run(hooks.SYSRng32, c))
	assert.Empty(t, c.forwards, "the wrapper is replaced, not forwarded")
	assert.Equal(t, []uint32{rngCoreVA}, f.rng)
	assert.Equal(t, uint32(0x80000000), got.Raw)
	assert.Equal(t, uint32(50), got.Result)

	assert.Equal(t, uint32(0), f.run(hooks.SYSRng32, call(0, heapBase+0x5000, 0)))
}

func TestHitCalc(t *testing.T) {
	f := newFixture(t)
	var got core.HitCalcContext
	f.bus.RegisterHitCalcHandler(func(c core.HitCalcContext) { got = c })

	assert.Equal(t, uint32(1), f.run(hooks.BTLHitCalcMain, call(1, 80)))
	assert.Equal(t, int32(80), got.BaseRate)
	assert.Equal(t, int32(1), got.Result)
}

func TestBattleUpdateHp_AppliesDamagePipeline(t *testing.T) {
	f := newFixture(t)
	const (
		calc = heapBase + 0x6000
		root = heapBase + 0x6100
		seq  = heapBase + 0x7000
		res  = heapBase + 0x7400
	)
	f.put(t, calc, root)
	f.put(t, root+rootMainUnit, heapBase+0x4000)
	f.run(hooks.BTLFinalDamagePre, call(0, calc, 1, 2, 3))
	assert.Equal(t, core.Handle(root), f.rt.BattleRoot())

	f.put(t, seq+seqResultBase, res)
	for slot := uint32(0); slot < resultSlots; slot++ {
		f.put(t, res+resultHpSlots+slot*4, 10+slot)
	}

	var seen []core.DamageContext
	require.True(t, f.combat.RegisterDamageModifier(func(ctx core.DamageContext, cur int32) int32 {
		seen = append(seen, ctx)
		return cur - 12
	}))

	var atOriginal []uint32
	c := call(0, seq, 0)
	c.onCall = func() {
		w, err := memory.ReadWords(f.heap, res+resultHpSlots, resultSlots)
		require.NoError(t, err)
		atOriginal = w
	}
	f.run(hooks.SEQHpDamage, c)

	assert.Equal(t, []uint32{0, 0, 0, 1}, atOriginal)
	require.Len(t, seen, 4)
	assert.Equal(t, core.Handle(root), seen[0].Root)
	assert.Equal(t, core.Handle(heapBase+0x4000), seen[0].Attacker)
	assert.Equal(t, int32(13), seen[3].BaseDamage)
}

func TestBattleUpdateHp_NoModifiersLeavesSlots(t *testing.T) {
	f := newFixture(t)
	const seq, res = heapBase + 0x7000, heapBase + 0x7400
	f.put(t, seq+seqResultBase, res)
	f.put(t, res+resultHpSlots, 0xFFFFFFF0)

	f.run(hooks.SEQHpDamage, call(0, seq, 0))

	v, err := memory.ReadU32(f.heap, res+resultHpSlots)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFFFFF0), v)
}

func TestUnitHpDamage_PostBattlePipeline(t *testing.T) {
	f := newFixture(t)
	c := call(7, 1, 3, 20, 4)
	assert.Equal(t, uint32(7), f.run(hooks.UNITHpDamage, c))
	assert.Equal(t, []uint32{1, 3, 20, 4}, c.forwards[0])

	f.combat.RegisterPostBattleHpModifier(func(ctx core.PostBattleHpContext, cur int32) int32 {
		return cur - 25
	})
	c = call(7, 1, 3, 20, 4)
	f.run(hooks.UNITHpDamage, c)
	assert.Equal(t, []uint32{1, 3, 0, 4}, c.forwards[0])
}

func TestLevelUpAndSkillLearn(t *testing.T) {
	f := newFixture(t)
	var levels []core.LevelUpContext
	var skills []core.SkillLearnContext
	f.bus.RegisterLevelUpHandler(func(c core.LevelUpContext) { levels = append(levels, c) })
	f.bus.RegisterSkillLearnHandler(func(c core.SkillLearnContext) { skills = append(skills, c) })

	const unit = heapBase + 0x8000
	f.putByte(t, unit+unitLevel, 14)
	f.run(hooks.UNITLevelUp, call(0, unit))
	require.Len(t, levels, 1)
	assert.Equal(t, uint8(14), levels[0].Level)

	f.run(hooks.UNITSkillLearn, call(0, unit, 0))
	f.run(hooks.UNITSkillLearn, call(0, unit, 0x0E))
	f.run(hooks.UNITSkillLearn, call(1, unit, 0))
	assert.Empty(t, skills)

	assert.Equal(t, uint32(1), f.run(hooks.UNITSkillLearn, call(1, unit, 0x0E)))
	require.Len(t, skills, 1)
	assert.Equal(t, uint16(0x0E), skills[0].SkillID)
}

func TestItemGain(t *testing.T) {
	f := newFixture(t)
	var got core.ItemGainContext
	f.bus.RegisterItemGainHandler(func(c core.ItemGainContext) { got = c })

	assert.Equal(t, uint32(2), f.run(hooks.SEQItemGain, call(2, 0x10, 0x20, 0x30, 0x40)))
	assert.Equal(t, core.Handle(0x20), got.Unit)
	assert.Equal(t, core.Handle(0x30), got.ItemArg)
	assert.Equal(t, int32(2), got.Result)
	assert.Equal(t, core.SideUnknown, got.Turn.Side)
}

func TestPassThroughForwardsArgs(t *testing.T) {
	f := newFixture(t)
	c := call(9, 1, 2, 3)
	assert.Equal(t, uint32(9), f.run(hooks.BTLGuardGaugeAdd, c))
	assert.Equal(t, []uint32{1, 2, 3}, c.forwards[0])

	c = call(3, 5, 6, 7, 8)
	assert.Equal(t, uint32(3), f.run(hooks.BTLSkillEffectApply, c))
	assert.Equal(t, []uint32{5, 6, 7, 8}, c.forwards[0])
}

type debugLogger struct {
	records map[string][][]any
}

func (l *debugLogger) Debug(msg string, kv ...any) {
	if l.records == nil {
		l.records = make(map[string][][]any)
	}
	l.records[msg] = append(l.records[msg], kv)
}
func (l *debugLogger) Info(string, ...any)  {}
func (l *debugLogger) Warn(string, ...any)  {}
func (l *debugLogger) Error(string, ...any) {}

func TestAttackStanceCheck_SituationDumps(t *testing.T) {
	f := newFixture(t)
	logger := &debugLogger{}
	f.svc.logger = logger

	situation := uint32(heapBase + 0x400)
	want := make([]uint32, situationDumpWords)
	for i := range want {
		want[i] = uint32(i + 1)
		f.put(t, situation+uint32(4*i), want[i])
	}

	f.run(hooks.BTLAttackStanceCheck, call(0, 0x00100000, 0))
	assert.Empty(t, logger.records["situation dump"])

	for i := 0; i < situationDumps+2; i++ {
		c := call(5, situation, 2)
		assert.Equal(t, uint32(5), f.run(hooks.BTLAttackStanceCheck, c))
		assert.Equal(t, [][]uint32{{situation, 2}}, c.forwards)
	}

	dumps := logger.records["situation dump"]
	require.Len(t, dumps, situationDumps, "one budget per session, outside-heap pointers never dumped")
	assert.Equal(t, []any{"addr", core.Handle(situation).String(), "words", want}, dumps[0])
}
