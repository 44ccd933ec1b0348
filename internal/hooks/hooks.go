// Package hooks defines the patch-point identities, stability tiers and the
// ahead-of-time catalog the installer works from.
package hooks

import "fmt"

// ID is a dense hook identity in [0, Count).
type ID uint16

const (
	BTLHitCalcMain ID = iota
	BTLCritCalcMain
	BTLFinalDamagePre
	BTLFinalDamagePost
	BTLGuardGaugeAdd
	BTLGuardGaugeSpend

	SEQHpDamage
	UNITHpDamage
	UNITUpdateCloneHP
	HPKillCheck
	SEQHpDamageHelper
	SEQItemGain

	MAPProcSkillDamage
	MAPProcTerrainDamage
	MAPProcTrickDamage
	EVENTActionEnd

	BTLAttackStanceCheck
	BTLAttackStanceApplySupport
	HUDBattleHPGaugeUpdate
	BTLSkillEffectApply

	SYSRng32
	SEQTurnBegin
	SEQTurnEnd
	SEQMapEnd
	SEQMapStart

	SEQItemUse
	UNITLevelUp
	UNITSkillLearn
	SEQUnitMove

	// Count is the size of every per-hook array.
	Count int = iota
)

var idNames = [Count]string{
	BTLHitCalcMain:              "BTL_HitCalc_Main",
	BTLCritCalcMain:             "BTL_CritCalc_Main",
	BTLFinalDamagePre:           "BTL_FinalDamage_Pre",
	BTLFinalDamagePost:          "BTL_FinalDamage_Post",
	BTLGuardGaugeAdd:            "BTL_GuardGauge_Add",
	BTLGuardGaugeSpend:          "BTL_GuardGauge_Spend",
	SEQHpDamage:                 "SEQ_Battle_UpdateHp",
	UNITHpDamage:                "UNIT_HpDamage",
	UNITUpdateCloneHP:           "UNIT_UpdateCloneHP",
	HPKillCheck:                 "HP_KillCheck",
	SEQHpDamageHelper:           "SEQ_HpDamage_Helper",
	SEQItemGain:                 "SEQ_ItemGain",
	MAPProcSkillDamage:          "MAP_ProcSkillDamage",
	MAPProcTerrainDamage:        "MAP_ProcTerrainDamage",
	MAPProcTrickDamage:          "MAP_ProcTrickDamage",
	EVENTActionEnd:              "EVENT_ActionEnd",
	BTLAttackStanceCheck:        "BTL_AttackStance_Check",
	BTLAttackStanceApplySupport: "BTL_AttackStance_ApplySupport",
	HUDBattleHPGaugeUpdate:      "HUD_Battle_HPGaugeUpdate",
	BTLSkillEffectApply:         "BTL_SkillEffect_Apply",
	SYSRng32:                    "SYS_Rng32",
	SEQTurnBegin:                "SEQ_TurnBegin",
	SEQTurnEnd:                  "SEQ_TurnEnd",
	SEQMapEnd:                   "SEQ_MapEnd",
	SEQMapStart:                 "SEQ_MapStart",
	SEQItemUse:                  "Unit_ItemUse",
	UNITLevelUp:                 "Unit_LevelUp",
	UNITSkillLearn:              "Unit_AddEquipSkill",
	SEQUnitMove:                 "SEQ_UnitMove",
}

// Valid reports whether id is inside the dense index space.
func (id ID) Valid() bool {
	return int(id) < Count
}

// Name returns the display name of the hook.
func (id ID) Name() string {
	if !id.Valid() {
		return fmt.Sprintf("Hook(%d)", uint16(id))
	}
	return idNames[id]
}

func (id ID) String() string { return id.Name() }

// ParseID resolves a display name back to its identity.
func ParseID(name string) (ID, bool) {
	for i, n := range idNames {
		if n == name {
			return ID(i), true
		}
	}
	return 0, false
}

// Stability says how far a patch point can be trusted.
type Stability uint8

const (
	Core Stability = iota
	Optional
	Experimental
)

func (s Stability) String() string {
	switch s {
	case Core:
		return "core"
	case Optional:
		return "optional"
	case Experimental:
		return "experimental"
	default:
		return fmt.Sprintf("stability(%d)", uint8(s))
	}
}

// ParseStability accepts the lower-case tier names used in catalog files.
func ParseStability(s string) (Stability, error) {
	switch s {
	case "core", "Core":
		return Core, nil
	case "optional", "Optional":
		return Optional, nil
	case "experimental", "Experimental":
		return Experimental, nil
	}
	return 0, fmt.Errorf("unknown stability tier %q", s)
}

// Call is the view a callback gets of one intercepted invocation.
type Call interface {
	// Arg returns the i-th raw argument register.
	Arg(i int) uint32
	// Original invokes the patched function with the given arguments and
	// returns its result. It may fire other hooks before returning.
	Original(args ...uint32) uint32
}

// Callback runs in place of the patched function. Its return value is handed
// back to the caller of the patched function.
type Callback func(Call) uint32
