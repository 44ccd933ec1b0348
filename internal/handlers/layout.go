package handlers

// Addresses and struct offsets observed in the target binary.
const (
	turnBranchStateVA = 0x003A4944
	rngCoreVA         = 0x0044AE14

	heapMinVA = 0x32000000
	heapMaxVA = 0x33FFFFFF
)

// BattleRoot, reached through the first word of the battle calculator.
const (
	rootMainUnit = 0x04
	rootFlags    = 0x10
	rootUnk14    = 0x14
	rootUnk18    = 0x18
	rootUnk1C    = 0x1C
)

// Unit.
const (
	unitLevel = 0xF1
	unitHP    = 0xF3
	unitClone = 0xAC
)

// Dead-event sequence.
const (
	killFlags = 0x280
	killDead0 = 0x284
	killDead1 = 0x288
)

// Battle HP update sequence.
const (
	seqResultBase = 0x254
	resultHpSlots = 0x20
	resultSlots   = 4
)

// Item use sequence.
const (
	useUnit = 0x30
	useCtx  = 0x34
)

// Unit command event.
const (
	cmdSeqMap = 0x10
	cmdData   = 0x1C
	cmdID     = 0x20
	cmdSide   = 0x24
	cmdUnk28  = 0x28
)

func inHeap(addr uint32) bool {
	return addr >= heapMinVA && addr <= heapMaxVA
}
