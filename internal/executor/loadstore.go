package executor

import (
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/decode"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

// execPCRelativeLoad: format 6, LDR Rd, [PC, #imm8<<2]. The base is the
// current PC value with bits 1:0 cleared, per the Thumb word-align rule.
func execPCRelativeLoad(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	base := s.Get(cpu.PC) &^ 0x3
	word, err := trackedLoad(s, m, base+in.Imm)
	if err != nil {
		return 1, err
	}
	s.Set(in.Rd, word)
	return 3, nil
}

// execLoadStoreReg: format 7, STR/LDR(B) Rd, [Rs, Rm].
func execLoadStoreReg(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	addr := s.Get(in.Rs) + s.Get(in.Rm)
	if in.Load {
		var value uint32
		var err error
		if in.Byte {
			var b byte
			b, err = loadByte(s, m, addr)
			value = uint32(b)
		} else {
			value, err = trackedLoad(s, m, addr&^0x3)
		}
		if err != nil {
			return 1, err
		}
		s.Set(in.Rd, value)
		return 3, nil
	}
	var err error
	if in.Byte {
		err = storeByte(s, m, addr, byte(s.Get(in.Rd)))
	} else {
		err = trackedStore(s, m, addr&^0x3, s.Get(in.Rd))
	}
	return 2, err
}

// execLoadStoreSignExt: format 8, STRH/LDRH/LDRSB/LDRSH Rd, [Rs, Rm].
func execLoadStoreSignExt(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	addr := s.Get(in.Rs) + s.Get(in.Rm)
	if !in.Load {
		err := storeHalf(s, m, addr, uint16(s.Get(in.Rd)))
		return 2, err
	}
	var value uint32
	var err error
	switch {
	case in.Byte && in.Sign:
		value, err = loadSignedByte(s, m, addr)
	case in.Half && in.Sign:
		value, err = loadSignedHalf(s, m, addr)
	case in.Half:
		var h uint16
		h, err = loadHalf(s, m, addr)
		value = uint32(h)
	}
	if err != nil {
		return 1, err
	}
	s.Set(in.Rd, value)
	return 3, nil
}

// execLoadStoreImm: format 9, STR/LDR(B) Rd, [Rs, #imm].
func execLoadStoreImm(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	addr := s.Get(in.Rs) + in.Imm
	if in.Load {
		var value uint32
		var err error
		if in.Byte {
			var b byte
			b, err = loadByte(s, m, addr)
			value = uint32(b)
		} else {
			value, err = trackedLoad(s, m, addr&^0x3)
		}
		if err != nil {
			return 1, err
		}
		s.Set(in.Rd, value)
		return 3, nil
	}
	var err error
	if in.Byte {
		err = storeByte(s, m, addr, byte(s.Get(in.Rd)))
	} else {
		err = trackedStore(s, m, addr&^0x3, s.Get(in.Rd))
	}
	return 2, err
}

// execLoadStoreHalfImm: format 10, STRH/LDRH Rd, [Rs, #imm5<<1].
func execLoadStoreHalfImm(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	addr := s.Get(in.Rs) + in.Imm
	if in.Load {
		h, err := loadHalf(s, m, addr)
		if err != nil {
			return 1, err
		}
		s.Set(in.Rd, uint32(h))
		return 3, nil
	}
	return 2, storeHalf(s, m, addr, uint16(s.Get(in.Rd)))
}

// execSPRelLoadStore: format 11, STR/LDR Rd, [SP, #imm8<<2].
func execSPRelLoadStore(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	addr := s.Get(cpu.SP) + in.Imm
	if in.Load {
		word, err := trackedLoad(s, m, addr&^0x3)
		if err != nil {
			return 1, err
		}
		s.Set(in.Rd, word)
		return 3, nil
	}
	return 2, trackedStore(s, m, addr&^0x3, s.Get(in.Rd))
}

// execLoadAddress: format 12, ADD Rd, PC|SP, #imm8<<2. Pure register
// arithmetic — no memory access — despite the ARM mnemonic's "load".
func execLoadAddress(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	var base uint32
	if in.SPBase {
		base = s.Get(cpu.SP)
	} else {
		base = s.Get(cpu.PC) &^ 0x3
	}
	s.Set(in.Rd, base+in.Imm)
	return 1, nil
}

// execAddOffsetToSP: format 13, ADD SP, #+/-imm7<<2.
func execAddOffsetToSP(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	s.Set(cpu.SP, uint32(int64(s.Get(cpu.SP))+int64(in.Offset)))
	return 1, nil
}
