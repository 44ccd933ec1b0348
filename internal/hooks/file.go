package hooks

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Word is a 32-bit value written as hex in catalog files.
type Word uint32

// UnmarshalYAML accepts decimal, 0x-hex, quoted or plain.
func (w *Word) UnmarshalYAML(n *yaml.Node) error {
	v, err := strconv.ParseUint(n.Value, 0, 32)
	if err != nil {
		return fmt.Errorf("line %d: invalid word %q: %w", n.Line, n.Value, err)
	}
	*w = Word(v)
	return nil
}

// MarshalYAML writes the word as a plain hex integer.
func (w Word) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprintf("0x%08X", uint32(w))}, nil
}

type fileRow struct {
	Name       string `yaml:"name"`
	TargetVA   Word   `yaml:"targetVA"`
	FileOffset *Word  `yaml:"fileOffset,omitempty"`
	Guard      []Word `yaml:"guard,flow"`
	Thumb      bool   `yaml:"thumb"`
	Stability  string `yaml:"stability"`
}

type fileDoc struct {
	Hooks []fileRow `yaml:"hooks"`
}

// Decode reads a YAML catalog. Rows are matched to identities by name.
func Decode(r io.Reader) (*Catalog, error) {
	var doc fileDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	rows := make([]Descriptor, 0, len(doc.Hooks))
	for i, fr := range doc.Hooks {
		id, ok := ParseID(fr.Name)
		if !ok {
			return nil, fmt.Errorf("row %d %q: %w", i, fr.Name, ErrUnknownHook)
		}
		if len(fr.Guard) > GuardWords {
			return nil, fmt.Errorf("row %d %q: %d guard words, at most %d allowed", i, fr.Name, len(fr.Guard), GuardWords)
		}
		stab := Core
		if fr.Stability != "" {
			s, err := ParseStability(fr.Stability)
			if err != nil {
				return nil, fmt.Errorf("row %d %q: %w", i, fr.Name, err)
			}
			stab = s
		}

		d := Descriptor{
			ID:        id,
			Name:      fr.Name,
			TargetVA:  uint32(fr.TargetVA),
			Thumb:     fr.Thumb,
			Stability: stab,
		}
		for j, g := range fr.Guard {
			d.Guard[j] = uint32(g)
		}
		switch {
		case fr.FileOffset != nil:
			d.FileOffset = uint32(*fr.FileOffset)
		case d.TargetVA >= CodeBase:
			d.FileOffset = d.TargetVA - CodeBase
		}
		rows = append(rows, d)
	}
	return NewCatalog(rows)
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes c in the format Decode reads.
func Encode(w io.Writer, c *Catalog) error {
	doc := fileDoc{}
	for _, d := range c.All() {
		off := Word(d.FileOffset)
		fr := fileRow{
			Name:       d.Name,
			TargetVA:   Word(d.TargetVA),
			FileOffset: &off,
			Thumb:      d.Thumb,
			Stability:  d.Stability.String(),
		}
		for _, g := range d.Guard {
			fr.Guard = append(fr.Guard, Word(g))
		}
		doc.Hooks = append(doc.Hooks, fr)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return enc.Close()
}
