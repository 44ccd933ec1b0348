package installer

import (
	"errors"
	"fmt"

	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
)

// ErrGuardMismatch means the code at a patch point is not what the catalog
// expects.
var ErrGuardMismatch = errors.New("guard mismatch")

// GuardResult is the outcome of comparing one descriptor against memory.
type GuardResult struct {
	Address  uint32
	Expected [hooks.GuardWords]uint32
	Current  [hooks.GuardWords]uint32
	Checked  bool // false when the descriptor carries no guard
}

// VerifyGuard reads the words at the canonical target of d and compares each
// non-zero guard word. A read failure is reported as a mismatch.
func VerifyGuard(mem memory.Reader, d hooks.Descriptor) (GuardResult, error) {
	res := GuardResult{Address: d.Canonical(), Expected: d.Guard}
	if !d.HasGuard() {
		return res, nil
	}
	res.Checked = true

	words, err := memory.ReadWords(mem, res.Address, hooks.GuardWords)
	if err != nil {
		return res, fmt.Errorf("%s: %w: %w", d.Name, ErrGuardMismatch, err)
	}
	copy(res.Current[:], words)

	for i, want := range d.Guard {
		if want != 0 && res.Current[i] != want {
			return res, fmt.Errorf("%s at 0x%08X word %d: have %08X want %08X: %w",
				d.Name, res.Address, i, res.Current[i], want, ErrGuardMismatch)
		}
	}
	return res, nil
}
