package hooks

import (
	"errors"
	"fmt"
)

// CodeBase is the load address of code.bin. File offsets are VA - CodeBase.
const CodeBase uint32 = 0x00100000

// GuardWords is the number of machine words compared before patching.
const GuardWords = 3

var (
	ErrUnknownHook   = errors.New("unknown hook")
	ErrDuplicateHook = errors.New("duplicate hook")
)

// Descriptor is one patch point.
type Descriptor struct {
	ID         ID
	Name       string
	TargetVA   uint32
	FileOffset uint32
	Guard      [GuardWords]uint32 // all zero disables verification
	Thumb      bool
	Stability  Stability
}

// HasGuard reports whether at least one guard word is set.
func (d Descriptor) HasGuard() bool {
	return d.Guard != [GuardWords]uint32{}
}

// Canonical returns the target with the execution-mode bit removed, aligned
// to the instruction size of its mode (2 for Thumb, 4 for ARM).
func (d Descriptor) Canonical() uint32 {
	if d.Thumb {
		return d.TargetVA &^ 1
	}
	return d.TargetVA &^ 3
}

// CallTarget is the address handed to the patch capability. Thumb targets
// carry the odd bit, ARM targets are even.
func (d Descriptor) CallTarget() uint32 {
	if d.Thumb {
		return d.Canonical() | 1
	}
	return d.Canonical()
}

// Catalog is an immutable, identity-indexed set of descriptors.
type Catalog struct {
	rows    [Count]Descriptor
	present [Count]bool
	n       int
}

// NewCatalog validates rows and indexes them by identity. Rows may cover
// only part of the identity space. A row without a name takes the built-in
// display name.
func NewCatalog(rows []Descriptor) (*Catalog, error) {
	c := &Catalog{}
	for _, d := range rows {
		if !d.ID.Valid() {
			return nil, fmt.Errorf("hook id %d: %w", d.ID, ErrUnknownHook)
		}
		if c.present[d.ID] {
			return nil, fmt.Errorf("%s: %w", d.ID.Name(), ErrDuplicateHook)
		}
		if d.Name == "" {
			d.Name = d.ID.Name()
		}
		c.rows[d.ID] = d
		c.present[d.ID] = true
		c.n++
	}
	return c, nil
}

// Len returns the number of rows.
func (c *Catalog) Len() int { return c.n }

// Lookup returns the row for id.
func (c *Catalog) Lookup(id ID) (Descriptor, bool) {
	if !id.Valid() || !c.present[id] {
		return Descriptor{}, false
	}
	return c.rows[id], true
}

// All returns every row in identity order.
func (c *Catalog) All() []Descriptor {
	out := make([]Descriptor, 0, c.n)
	for i := range c.rows {
		if c.present[i] {
			out = append(out, c.rows[i])
		}
	}
	return out
}

// Tier returns the rows of one stability tier in identity order.
func (c *Catalog) Tier(s Stability) []Descriptor {
	var out []Descriptor
	for i := range c.rows {
		if c.present[i] && c.rows[i].Stability == s {
			out = append(out, c.rows[i])
		}
	}
	return out
}
