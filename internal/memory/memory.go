// Package memory implements the flat, word-aligned physical address space
// the Thumb interpreter executes against: a read-only code region and a
// read-write data region.
package memory

import (
	"encoding/binary"
	"fmt"
)

// Fault reports a bus violation: an access outside a mapped region, an
// unaligned word access, or a write to the code region.
type Fault struct {
	Event string
	Addr  uint32
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: unmapped or misaligned address %#08x", f.Event, f.Addr)
}

// Memory is the two-region address space described in spec §3/§4.1. Code is
// read-only once loaded; Data is read-write. Both regions are addressed from
// their own base.
type Memory struct {
	codeBase uint32
	code     []byte

	dataBase uint32
	data     []byte
}

// New allocates a Memory with the given code and data region sizes, based at
// codeBase and dataBase respectively.
func New(codeBase uint32, codeSize int, dataBase uint32, dataSize int) *Memory {
	return &Memory{
		codeBase: codeBase,
		code:     make([]byte, codeSize),
		dataBase: dataBase,
		data:     make([]byte, dataSize),
	}
}

// LoadCode copies program bytes into the code region starting offset bytes
// past codeBase.
// Intended to be called once, by the loader, before execution begins.
func (m *Memory) LoadCode(offset uint32, program []byte) error {
	if int(offset)+len(program) > len(m.code) {
		return &Fault{Event: "load code", Addr: m.codeBase + offset}
	}
	copy(m.code[offset:], program)
	return nil
}

// CodeBase returns the base address of the code region.
func (m *Memory) CodeBase() uint32 { return m.codeBase }

// IsCode reports whether addr falls within the code region.
func (m *Memory) IsCode(addr uint32) bool {
	return addr >= m.codeBase && addr < m.codeBase+uint32(len(m.code))
}

// IsData reports whether addr falls within the data region.
func (m *Memory) IsData(addr uint32) bool {
	return addr >= m.dataBase && addr < m.dataBase+uint32(len(m.data))
}

// DataBase returns the base address of the data region.
func (m *Memory) DataBase() uint32 { return m.dataBase }

// StackTop returns the address one past the end of the data region, the
// conventional initial stack pointer for a full-descending stack.
func (m *Memory) StackTop() uint32 { return m.dataBase + uint32(len(m.data)) }

// FetchHalfword reads a 16-bit Thumb opcode from the code region. Unlike
// Load/Store this does not require 32-bit alignment, only 16-bit.
func (m *Memory) FetchHalfword(addr uint32) (uint16, error) {
	if addr&0x1 != 0 {
		return 0, &Fault{Event: "fetch", Addr: addr}
	}
	if !m.IsCode(addr) || addr+1 >= m.codeBase+uint32(len(m.code)) {
		return 0, &Fault{Event: "fetch", Addr: addr}
	}
	off := addr - m.codeBase
	return binary.LittleEndian.Uint16(m.code[off : off+2]), nil
}

// Load reads a 32-bit word at a word-aligned address, from either region.
func (m *Memory) Load(addr uint32) (uint32, error) {
	if addr&0x3 != 0 {
		return 0, &Fault{Event: "load", Addr: addr}
	}
	if m.IsCode(addr) {
		off := addr - m.codeBase
		if off+4 > uint32(len(m.code)) {
			return 0, &Fault{Event: "load", Addr: addr}
		}
		return binary.LittleEndian.Uint32(m.code[off : off+4]), nil
	}
	if m.IsData(addr) {
		off := addr - m.dataBase
		if off+4 > uint32(len(m.data)) {
			return 0, &Fault{Event: "load", Addr: addr}
		}
		return binary.LittleEndian.Uint32(m.data[off : off+4]), nil
	}
	return 0, &Fault{Event: "load", Addr: addr}
}

// Store writes a 32-bit word at a word-aligned address. Writes to the code
// region are a fault: real non-volatile program memory cannot be
// reprogrammed by the running program.
func (m *Memory) Store(addr uint32, word uint32) error {
	if addr&0x3 != 0 {
		return &Fault{Event: "store", Addr: addr}
	}
	if m.IsCode(addr) {
		return &Fault{Event: "store to code region", Addr: addr}
	}
	if m.IsData(addr) {
		off := addr - m.dataBase
		if off+4 > uint32(len(m.data)) {
			return &Fault{Event: "store", Addr: addr}
		}
		binary.LittleEndian.PutUint32(m.data[off:off+4], word)
		return nil
	}
	return &Fault{Event: "store", Addr: addr}
}
