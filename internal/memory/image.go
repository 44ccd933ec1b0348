package memory

import (
	"fmt"
	"os"
	"sort"
)

// Image is a flat byte region mapped at a fixed base address.
type Image struct {
	base uint32
	data []byte
}

// NewImage maps data at base. The slice is used directly, not copied.
func NewImage(base uint32, data []byte) *Image {
	return &Image{base: base, data: data}
}

// LoadImage maps a raw dump file (for example code.bin) at base.
func LoadImage(path string, base uint32) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading image: %w", err)
	}
	return NewImage(base, data), nil
}

// Base returns the first mapped address.
func (m *Image) Base() uint32 { return m.base }

// Size returns the number of mapped bytes.
func (m *Image) Size() int { return len(m.data) }

// Contains reports whether addr is mapped.
func (m *Image) Contains(addr uint32) bool {
	return addr >= m.base && uint64(addr-m.base) < uint64(len(m.data))
}

func (m *Image) ReadMemory(addr uint32, data []byte) (int, error) {
	if !m.Contains(addr) {
		return 0, ErrOutOfRange
	}
	n := copy(data, m.data[addr-m.base:])
	if n < len(data) {
		return n, ErrOutOfRange
	}
	return n, nil
}

func (m *Image) WriteMemory(addr uint32, data []byte) (int, error) {
	if !m.Contains(addr) {
		return 0, ErrOutOfRange
	}
	n := copy(m.data[addr-m.base:], data)
	if n < len(data) {
		return n, ErrOutOfRange
	}
	return n, nil
}

// Space is a set of non-overlapping images. Accesses may not straddle two
// images.
type Space struct {
	regions []*Image
}

// NewSpace builds a space from regions.
func NewSpace(regions ...*Image) *Space {
	s := &Space{}
	for _, r := range regions {
		s.Map(r)
	}
	return s
}

// Map adds a region.
func (s *Space) Map(r *Image) {
	s.regions = append(s.regions, r)
	sort.Slice(s.regions, func(i, j int) bool { return s.regions[i].base < s.regions[j].base })
}

func (s *Space) find(addr uint32) *Image {
	for _, r := range s.regions {
		if r.Contains(addr) {
			return r
		}
	}
	return nil
}

func (s *Space) ReadMemory(addr uint32, data []byte) (int, error) {
	r := s.find(addr)
	if r == nil {
		return 0, ErrOutOfRange
	}
	return r.ReadMemory(addr, data)
}

func (s *Space) WriteMemory(addr uint32, data []byte) (int, error) {
	r := s.find(addr)
	if r == nil {
		return 0, ErrOutOfRange
	}
	return r.WriteMemory(addr, data)
}
