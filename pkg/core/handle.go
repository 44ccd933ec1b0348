package core

import "fmt"

// Handle is an opaque identity for an object living in the patched process
// (a unit, a sequence, a battle calculator). The zero Handle is "no object".
type Handle uint32

// IsValid reports whether h refers to an object.
func (h Handle) IsValid() bool {
	return h != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("0x%08X", uint32(h))
}
