package hooks

// Default returns the catalog for the supported code.bin revision.
// Optional rows are known to be unreliable and are not installed by default.
func Default() *Catalog {
	c, err := NewCatalog(defaultRows())
	if err != nil {
		panic("hooks: built-in catalog is invalid: " + err.Error())
	}
	return c
}

func row(id ID, va uint32, guard [GuardWords]uint32, thumb bool, s Stability) Descriptor {
	var off uint32
	if va >= CodeBase {
		off = va - CodeBase
	}
	return Descriptor{
		ID:         id,
		Name:       id.Name(),
		TargetVA:   va,
		FileOffset: off,
		Guard:      guard,
		Thumb:      thumb,
		Stability:  s,
	}
}

func withOffset(d Descriptor, off uint32) Descriptor {
	d.FileOffset = off
	return d
}

func defaultRows() []Descriptor {
	const arm, thumb = false, true
	return []Descriptor{
		row(BTLHitCalcMain, 0x003A3588, [3]uint32{0xE3A01064, 0xE92D4070, 0xE0050190}, arm, Core),
		// no clean entry point for crit, row kept for the identity
		row(BTLCritCalcMain, 0x0052B988, [3]uint32{0xE3710001, 0xE1A02000, 0xE92D4010}, thumb, Optional),
		row(BTLFinalDamagePre, 0x00364FCC, [3]uint32{}, arm, Core),
		// below the code base; the dump offset was recorded separately
		withOffset(row(BTLFinalDamagePost, 0x0003B79C, [3]uint32{0x8590300C, 0x9A000012, 0xE7935102}, arm, Optional), 0x0002B79C),
		row(BTLGuardGaugeAdd, 0x00102DFE, [3]uint32{0xB510430B, 0xD11C079B, 0xD31A2A04}, thumb, Optional),
		row(BTLGuardGaugeSpend, 0x001490D4, [3]uint32{0xE672CF93, 0xE666AFF2, 0xE662BFF6}, arm, Optional),

		row(SEQHpDamage, 0x0035C7B8, [3]uint32{0xE92D4070, 0xE1A05000, 0xE590025C}, arm, Core),
		row(UNITHpDamage, 0x003A844C, [3]uint32{0xE92D40F8, 0xE2510000, 0xE1A04001}, arm, Core),
		row(UNITUpdateCloneHP, 0x003D575C, [3]uint32{0xE59010AC, 0xE3510000, 0x0A000004}, arm, Core),
		row(HPKillCheck, 0x0035CADC, [3]uint32{0xE92D4070, 0xE1A05000, 0xEB0724DD}, arm, Core),
		row(SEQHpDamageHelper, 0x00360F94, [3]uint32{0xE92D41F0, 0xE1A04000, 0xE24DD010}, arm, Core),
		row(SEQItemGain, 0x00361124, [3]uint32{0xE92D43F8, 0xE1A05001, 0xE1A07000}, arm, Core),

		row(MAPProcSkillDamage, 0x00386820, [3]uint32{0xE92D4038, 0xE1A05000, 0xE3A0003C}, arm, Core),
		row(MAPProcTerrainDamage, 0x00386948, [3]uint32{0xE92D40F0, 0xE24DD064, 0xE1A07000}, arm, Core),
		row(MAPProcTrickDamage, 0x00386D18, [3]uint32{0xE92D4070, 0xE1A04000, 0xE59F504C}, arm, Core),
		row(EVENTActionEnd, 0x0042262C, [3]uint32{0xE59F2018, 0xE3A03000, 0xE3A0101E}, arm, Core),

		row(BTLAttackStanceCheck, 0x005281B8, [3]uint32{0xE92D4070, 0xE1A04000, 0xE5900004}, arm, Core),
		row(BTLAttackStanceApplySupport, 0x00347350, [3]uint32{0xE92D47F0, 0xE1A06000, 0xE5900804}, arm, Core),
		// causes gauge glitches in the battle HUD
		row(HUDBattleHPGaugeUpdate, 0x001D3148, [3]uint32{0xE92D4FFF, 0xE1A04001, 0xE1A07000}, arm, Optional),
		row(BTLSkillEffectApply, 0x0039F9E0, [3]uint32{0xE92D4FFF, 0xE1A04001, 0xE1A07000}, arm, Optional),

		row(SYSRng32, 0x0044ADF8, [3]uint32{0xE92D4010, 0xE1A04001, 0xEB000003}, arm, Core),
		row(SEQTurnBegin, 0x003A54D8, [3]uint32{0xE92D4070, 0xE59F60DC, 0xE5960008}, arm, Core),
		row(SEQTurnEnd, 0x003A4F0C, [3]uint32{0xE92D41F0, 0xE1A05000, 0xE59F70D8}, arm, Core),
		row(SEQMapEnd, 0x003A4FFC, [3]uint32{0xE92D4FF8, 0xE3A07000, 0xE3A09003}, arm, Core),
		row(SEQMapStart, 0x003A4898, [3]uint32{0xE59F0050, 0xE92D4010, 0xE5900000}, arm, Core),

		row(SEQItemUse, 0x0037D8F4, [3]uint32{0xE92D4010, 0xE1A04000, 0xE5900030}, arm, Core),
		row(UNITLevelUp, 0x003D8154, [3]uint32{0xE92D4FF0, 0xE24DD03C, 0xE1A07000}, arm, Core),
		row(UNITSkillLearn, 0x003D547C, [3]uint32{0xE3510000, 0x0A000015, 0xE1D02FBE}, arm, Core),
		row(SEQUnitMove, 0x00354524, [3]uint32{0xE92D4070, 0xE1A05000, 0xEB00D2B8}, arm, Core),
	}
}
