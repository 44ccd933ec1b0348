// Package core holds the stable value types shared between the engine and
// consumer modules. Nothing in here aliases live runtime state.
package core

import "fmt"

// TurnSide is the faction whose turn is active.
type TurnSide uint8

const (
	Side0 TurnSide = iota
	Side1
	Side2
	Side3

	SideUnknown TurnSide = 0xFF
)

// SideCount is the number of addressable sides (Side0..Side3).
const SideCount = 4

// SideFromRaw converts a raw side byte read from game memory.
// Anything outside 0..3 becomes SideUnknown.
func SideFromRaw(v uint32) TurnSide {
	if v < SideCount {
		return TurnSide(v)
	}
	return SideUnknown
}

// Valid reports whether s indexes one of the four per-side slots.
func (s TurnSide) Valid() bool {
	return s < SideCount
}

// Index returns the per-side slot index, or -1 for SideUnknown.
func (s TurnSide) Index() int {
	if !s.Valid() {
		return -1
	}
	return int(s)
}

func (s TurnSide) String() string {
	if s.Valid() {
		return fmt.Sprintf("Side%d", uint8(s))
	}
	return "Unknown"
}
