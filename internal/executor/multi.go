package executor

import (
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/decode"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

// pcUpdateCycles is the pipeline-refill penalty added to POP's cycle count
// when the loaded register set includes PC (spec.md's resolved reading of
// the operator-precedence expression in the original C source — see
// DESIGN.md's internal/executor entry).
const pcUpdateCycles = 2

// execPushPop: format 14. PUSH stores r0..r7 ascending starting at the new,
// lower SP, with LR (if R) stored last at the highest address; POP loads
// in the same ascending order and, if R, also loads PC and latches a
// branch. This matches real ARM STMDB/LDMIA-via-SP semantics, not a literal
// port of the teacher (the Atari target has no stack-pointer-relative
// multi-register transfer).
func execPushPop(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	if in.Load {
		return execPop(s, m, in)
	}
	return execPush(s, m, in)
}

func execPush(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	count := popcount8(in.RegisterList)
	if in.R {
		count++
	}
	sp := s.Get(cpu.SP) - uint32(count)*4
	addr := sp
	for i := 0; i < 8; i++ {
		if in.RegisterList&(1<<i) == 0 {
			continue
		}
		if err := trackedStore(s, m, addr, s.Get(i)); err != nil {
			return 1, err
		}
		addr += 4
	}
	if in.R {
		if err := trackedStore(s, m, addr, s.Get(cpu.LR)); err != nil {
			return 1, err
		}
	}
	s.Set(cpu.SP, sp)
	return uint64(count) + 1, nil
}

func execPop(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	addr := s.Get(cpu.SP)
	numLoaded := 0
	for i := 0; i < 8; i++ {
		if in.RegisterList&(1<<i) == 0 {
			continue
		}
		word, err := trackedLoad(s, m, addr)
		if err != nil {
			return 1, err
		}
		s.Set(i, word)
		addr += 4
		numLoaded++
	}
	if in.R {
		word, err := trackedLoad(s, m, addr)
		if err != nil {
			return 1, err
		}
		if word&1 == 0 {
			return 1, &Fault{Reason: "write to pc with bit 0 clear"}
		}
		s.Set(cpu.PC, word&^1)
		addr += 4
		numLoaded++
		s.BranchTaken = true
	}
	s.Set(cpu.SP, addr)

	cycles := uint64(1 + numLoaded)
	if s.BranchTaken {
		cycles += pcUpdateCycles
	}
	return cycles, nil
}

// execMultipleLoadStore: format 15, LDM/STM Rn!, {register list}.
func execMultipleLoadStore(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	if in.Load {
		return execLDM(s, m, in)
	}
	return execSTM(s, m, in)
}

func execLDM(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	rn := in.Rd
	addr := s.Get(rn)
	count := 0
	rnInList := in.RegisterList&(1<<rn) != 0
	for i := 0; i < 8; i++ {
		if in.RegisterList&(1<<i) == 0 {
			continue
		}
		word, err := trackedLoad(s, m, addr)
		if err != nil {
			return 1, err
		}
		s.Set(i, word)
		addr += 4
		count++
	}
	// LDM writeback is skipped when the base register is itself in the
	// list: the loaded value for Rn, not the computed end address, must
	// survive. See original_source/thumbulator's ldm().
	if !rnInList {
		s.Set(rn, addr)
	}
	return uint64(1 + count), nil
}

func execSTM(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	rn := in.Rd
	addr := s.Get(rn)
	lowestSet := lowestSetBit(in.RegisterList)
	count := 0
	for i := 0; i < 8; i++ {
		if in.RegisterList&(1<<i) == 0 {
			continue
		}
		if i == rn && i != lowestSet {
			return 1, &Fault{Reason: "malformed STM: base register is not first in register list"}
		}
		if err := trackedStore(s, m, addr, s.Get(i)); err != nil {
			return 1, err
		}
		addr += 4
		count++
	}
	// STM always writes back, even when Rn is in the list (it is only
	// tolerated there as the lowest register, stored before being
	// overwritten), matching thumbulator's stricter-than-ARM stm().
	s.Set(rn, addr)
	return uint64(1 + count), nil
}

func lowestSetBit(v uint16) int {
	for i := 0; i < 16; i++ {
		if v&(1<<i) != 0 {
			return i
		}
	}
	return -1
}
