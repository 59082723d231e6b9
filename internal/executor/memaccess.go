package executor

import (
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

// Sub-word memory access. The memory package only understands word-aligned
// 32-bit transfers (spec §4.1); byte and halfword loads/stores are built
// here as a word-aligned read, a shift/mask, and — for stores — a
// read-modify-write back to the same word. This boundary is explicit in
// spec §4.4: sub-word addressing is the executor's concern, not memory's.
//
// Every helper also appends to s.Accesses, the trace a policy.Scheme that
// cares about access patterns (Clank) reads after the instruction
// completes; neither memory nor decode need know that policy exists.

// trackedLoad and trackedStore only add to s.Accesses for data-region
// addresses: Clank's idempotency buffers (the one consumer of this trace)
// track RAM access patterns, not code fetches, matching the original's
// ram_load_hook/ram_store_hook which never see the read-only code region.
func trackedLoad(s *cpu.State, m *memory.Memory, addr uint32) (uint32, error) {
	word, err := m.Load(addr)
	if err != nil {
		return 0, err
	}
	if m.IsData(addr) {
		s.Accesses = append(s.Accesses, cpu.MemoryAccess{Addr: addr, Write: false})
	}
	return word, nil
}

func trackedStore(s *cpu.State, m *memory.Memory, addr, word uint32) error {
	if err := m.Store(addr, word); err != nil {
		return err
	}
	if m.IsData(addr) {
		s.Accesses = append(s.Accesses, cpu.MemoryAccess{Addr: addr, Write: true})
	}
	return nil
}

func loadByte(s *cpu.State, m *memory.Memory, addr uint32) (byte, error) {
	word, err := trackedLoad(s, m, addr&^0x3)
	if err != nil {
		return 0, err
	}
	shift := (addr & 0x3) * 8
	return byte(word >> shift), nil
}

func loadSignedByte(s *cpu.State, m *memory.Memory, addr uint32) (uint32, error) {
	b, err := loadByte(s, m, addr)
	if err != nil {
		return 0, err
	}
	return uint32(int32(int8(b))), nil
}

func storeByte(s *cpu.State, m *memory.Memory, addr uint32, value byte) error {
	wordAddr := addr &^ 0x3
	word, err := m.Load(wordAddr)
	if err != nil {
		return err
	}
	shift := (addr & 0x3) * 8
	word = (word &^ (0xff << shift)) | uint32(value)<<shift
	return trackedStore(s, m, wordAddr, word)
}

func loadHalf(s *cpu.State, m *memory.Memory, addr uint32) (uint16, error) {
	word, err := trackedLoad(s, m, addr&^0x3)
	if err != nil {
		return 0, err
	}
	shift := (addr & 0x2) * 8
	return uint16(word >> shift), nil
}

func loadSignedHalf(s *cpu.State, m *memory.Memory, addr uint32) (uint32, error) {
	h, err := loadHalf(s, m, addr)
	if err != nil {
		return 0, err
	}
	return uint32(int32(int16(h))), nil
}

func storeHalf(s *cpu.State, m *memory.Memory, addr uint32, value uint16) error {
	wordAddr := addr &^ 0x3
	word, err := m.Load(wordAddr)
	if err != nil {
		return err
	}
	shift := (addr & 0x2) * 8
	word = (word &^ (0xffff << shift)) | uint32(value)<<shift
	return trackedStore(s, m, wordAddr, word)
}
