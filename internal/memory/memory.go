// Package memory is the boundary between the engine and the address space of
// the patched process. Everything that dereferences a raw game pointer goes
// through a Reader so it can be backed by live memory, a code.bin dump or a
// test fixture.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for reads or writes outside any mapped region.
var ErrOutOfRange = errors.New("address out of range")

// Reader reads bytes at a virtual address. It returns the number of bytes
// read; a short read comes with an error.
type Reader interface {
	ReadMemory(addr uint32, data []byte) (int, error)
}

// Writer writes bytes at a virtual address.
type Writer interface {
	WriteMemory(addr uint32, data []byte) (int, error)
}

// ReadWriter is both.
type ReadWriter interface {
	Reader
	Writer
}

func readFull(r Reader, addr uint32, buf []byte) error {
	n, err := r.ReadMemory(addr, buf)
	if err != nil {
		return fmt.Errorf("read %d bytes at 0x%08X: %w", len(buf), addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short read at 0x%08X (%d of %d): %w", addr, n, len(buf), ErrOutOfRange)
	}
	return nil
}

// ReadU32 reads a little-endian word.
func ReadU32(r Reader, addr uint32) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// ReadU16 reads a little-endian halfword.
func ReadU16(r Reader, addr uint32) (uint16, error) {
	var buf [2]byte
	if err := readFull(r, addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// ReadU8 reads one byte.
func ReadU8(r Reader, addr uint32) (uint8, error) {
	var buf [1]byte
	if err := readFull(r, addr, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadS8 reads one byte as a signed value.
func ReadS8(r Reader, addr uint32) (int8, error) {
	b, err := ReadU8(r, addr)
	return int8(b), err
}

// ReadWords reads n consecutive words starting at addr.
func ReadWords(r Reader, addr uint32, n int) ([]uint32, error) {
	buf := make([]byte, 4*n)
	if err := readFull(r, addr, buf); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return out, nil
}

// WriteU32 writes a little-endian word.
func WriteU32(w Writer, addr, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	n, err := w.WriteMemory(addr, buf[:])
	if err != nil {
		return fmt.Errorf("write word at 0x%08X: %w", addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short write at 0x%08X: %w", addr, ErrOutOfRange)
	}
	return nil
}
