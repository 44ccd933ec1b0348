// pkg/core/events.go
package core

// EventKind names an event family.
type EventKind uint16

const (
	EventMapBegin EventKind = iota
	EventMapEnd
	EventTurnBegin
	EventTurnEnd
	EventKill
	EventRngCall
	EventHitCalc
	EventLevelUp
	EventSkillLearn
	EventItemGain
	EventHpChange
)

var eventKindNames = [...]string{
	EventMapBegin:   "MapBegin",
	EventMapEnd:     "MapEnd",
	EventTurnBegin:  "TurnBegin",
	EventTurnEnd:    "TurnEnd",
	EventKill:       "Kill",
	EventRngCall:    "RngCall",
	EventHitCalc:    "HitCalc",
	EventLevelUp:    "LevelUp",
	EventSkillLearn: "SkillLearn",
	EventItemGain:   "ItemGain",
	EventHpChange:   "HpChange",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "EventKind(?)"
}

// KillEvent is the raw record captured by the kill check.
type KillEvent struct {
	Seq   Handle // sequence that reported the death
	Dead0 Handle
	Dead1 Handle
	Flags uint32
}

// MapContext is a snapshot of the map lifecycle.
type MapContext struct {
	SeqRoot     Handle
	Generation  uint32
	StartSide   TurnSide
	CurrentSide TurnSide
	TotalTurns  uint32
	KillEvents  uint32
	Active      bool
}

// TurnContext is a snapshot of the side whose turn it is.
type TurnContext struct {
	Map           MapContext
	Side          TurnSide
	SideTurnIndex uint32 // turns taken by Side so far this map
}

// KillContext wraps a KillEvent with map and turn snapshots.
type KillContext struct {
	Event KillEvent
	Map   MapContext
	Turn  TurnContext
}

// HpEvent describes one HP change.
// Amount > 0 is damage taken, Amount < 0 is healing received.
type HpEvent struct {
	Source  Handle
	Target  Handle
	Amount  int32
	Flags   uint32
	Context Handle
}

// HpChangeContext wraps an HpEvent with map and turn snapshots.
type HpChangeContext struct {
	Event HpEvent
	Map   MapContext
	Turn  TurnContext
}

// TurnEndContext is dispatched after the game finished a turn.
type TurnEndContext struct {
	Turn TurnContext
	Seq  Handle
}

// MapEndContext is dispatched after the map sequence finished.
type MapEndContext struct {
	Map  MapContext
	Side TurnSide
}

// RngContext describes one call into the bounded RNG.
type RngContext struct {
	Map    MapContext
	Turn   TurnContext
	State  Handle
	Raw    uint32
	Bound  uint32
	Result uint32
}

// HitCalcContext describes one hit roll.
type HitCalcContext struct {
	Map      MapContext
	Turn     TurnContext
	BaseRate int32
	Result   int32
}

// LevelUpContext is dispatched after a level has been applied.
type LevelUpContext struct {
	Map   MapContext
	Turn  TurnContext
	Unit  Handle
	Level uint8
}

// SkillLearnContext is dispatched after a skill was equipped.
type SkillLearnContext struct {
	Map     MapContext
	Turn    TurnContext
	Unit    Handle
	SkillID uint16
	Flags   uint16
	Result  int32
}

// ItemGainContext is dispatched after an item was handed to a unit.
type ItemGainContext struct {
	Map       MapContext
	Turn      TurnContext
	Seq       Handle
	Unit      Handle
	ItemArg   Handle
	ModeOrCtx Handle
	Result    int32
}

// DamageContext is the input snapshot for final damage modifiers.
type DamageContext struct {
	Map        MapContext
	Turn       TurnContext
	Attacker   Handle
	Defender   Handle
	Root       Handle // battle calculator root
	Calc       Handle
	BaseDamage int32
}

// PostBattleHpContext is the input snapshot for post-battle HP modifiers.
type PostBattleHpContext struct {
	Map        MapContext
	Turn       TurnContext
	Unit       Handle
	BaseAmount int32
}
