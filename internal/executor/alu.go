package executor

import (
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/decode"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

// execShiftImm: format 1, LSL/LSR/ASR Rd, Rs, #imm5. One cycle, sets N/Z/C
// and leaves V untouched, per the Thumb-1 shift-by-immediate rule.
func execShiftImm(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	value := s.Get(in.Rs)
	result, carry := shift(in.ShiftKind, value, in.Imm, s.Flags.C)
	s.Set(in.Rd, result)
	s.Flags.SetNZ(result)
	s.Flags.C = carry
	return 1, nil
}

// shift applies kind to value by the given amount, returning the result
// and the carry bit that shifting out produces. A zero LSL amount is a
// pass-through that preserves the incoming carry, matching the ARM
// pseudocode for shift-by-#0.
func shift(kind decode.ShiftKind, value, amount uint32, carryIn bool) (result uint32, carryOut bool) {
	switch kind {
	case decode.ShiftLSL:
		if amount == 0 {
			return value, carryIn
		}
		if amount > 32 {
			return 0, false
		}
		carryOut = value&(1<<(32-amount)) != 0
		if amount == 32 {
			return 0, value&1 != 0
		}
		return value << amount, carryOut
	case decode.ShiftLSR:
		if amount == 0 {
			amount = 32 // LSR #0 in this encoding means LSR #32
		}
		if amount > 32 {
			return 0, false
		}
		if amount == 32 {
			return 0, value&0x80000000 != 0
		}
		carryOut = value&(1<<(amount-1)) != 0
		return value >> amount, carryOut
	case decode.ShiftASR:
		if amount == 0 {
			amount = 32
		}
		signed := int32(value)
		if amount >= 32 {
			if signed < 0 {
				return 0xffffffff, true
			}
			return 0, false
		}
		carryOut = value&(1<<(amount-1)) != 0
		return uint32(signed >> amount), carryOut
	}
	return value, carryIn
}

// rotateRight is used by ROR in the format-4 ALU table.
func rotateRight(value, amount uint32) (result uint32, carryOut bool) {
	amount &= 0xff
	if amount == 0 {
		return value, false
	}
	n := amount % 32
	if n == 0 {
		return value, value&0x80000000 != 0
	}
	result = (value >> n) | (value << (32 - n))
	carryOut = value&(1<<(n-1)) != 0
	return
}

// execAddSubReg: format 2, ADD/SUB Rd, Rs, Rn|#imm3.
func execAddSubReg(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	a := s.Get(in.Rs)
	var b uint32
	if in.ImmOperand {
		b = in.Imm
	} else {
		b = s.Get(in.Rn)
	}
	var result uint32
	var carry, overflow bool
	if in.Sub == decode.SUB {
		result, carry, overflow = cpu.AddWithCarry(a, ^b, true)
	} else {
		result, carry, overflow = cpu.AddWithCarry(a, b, false)
	}
	s.Set(in.Rd, result)
	s.Flags.SetArithmetic(result, carry, overflow)
	return 1, nil
}

// execMovCmpAddSubImm8: format 3, MOV/CMP/ADD/SUB Rd, #imm8.
func execMovCmpAddSubImm8(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	switch in.Sub {
	case decode.MOV:
		s.Set(in.Rd, in.Imm)
		s.Flags.SetNZ(in.Imm)
	case decode.CMP:
		a := s.Get(in.Rd)
		result, carry, overflow := cpu.AddWithCarry(a, ^in.Imm, true)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.ADD:
		a := s.Get(in.Rd)
		result, carry, overflow := cpu.AddWithCarry(a, in.Imm, false)
		s.Set(in.Rd, result)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.SUB:
		a := s.Get(in.Rd)
		result, carry, overflow := cpu.AddWithCarry(a, ^in.Imm, true)
		s.Set(in.Rd, result)
		s.Flags.SetArithmetic(result, carry, overflow)
	}
	return 1, nil
}

// execALU: format 4, the sixteen two-register ALU/shift operations.
func execALU(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	rd := s.Get(in.Rd)
	rs := s.Get(in.Rs)
	cycles := uint64(1)

	switch in.Sub {
	case decode.AND:
		result := rd & rs
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
	case decode.EOR:
		result := rd ^ rs
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
	case decode.LSL:
		result, carry := shift(decode.ShiftLSL, rd, rs&0xff, s.Flags.C)
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
		s.Flags.C = carry
		cycles = 2
	case decode.LSR:
		result, carry := shift(decode.ShiftLSR, rd, rs&0xff, s.Flags.C)
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
		s.Flags.C = carry
		cycles = 2
	case decode.ASR:
		result, carry := shift(decode.ShiftASR, rd, rs&0xff, s.Flags.C)
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
		s.Flags.C = carry
		cycles = 2
	case decode.ADC:
		result, carry, overflow := cpu.AddWithCarry(rd, rs, s.Flags.C)
		s.Set(in.Rd, result)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.SBC:
		result, carry, overflow := cpu.AddWithCarry(rd, ^rs, s.Flags.C)
		s.Set(in.Rd, result)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.ROR:
		result, carry := rotateRight(rd, rs)
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
		s.Flags.C = carry
		cycles = 2
	case decode.TST:
		s.Flags.SetNZ(rd & rs)
	case decode.NEG:
		result, carry, overflow := cpu.AddWithCarry(0, ^rs, true)
		s.Set(in.Rd, result)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.CMP:
		result, carry, overflow := cpu.AddWithCarry(rd, ^rs, true)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.CMN:
		result, carry, overflow := cpu.AddWithCarry(rd, rs, false)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.ORR:
		result := rd | rs
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
	case decode.MUL:
		result := rd * rs
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
		cycles = mulCycles(rs)
	case decode.BIC:
		result := rd &^ rs
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
	case decode.MVN:
		result := ^rs
		s.Set(in.Rd, result)
		s.Flags.SetNZ(result)
	}
	return cycles, nil
}

// mulCycles approximates the early-terminating multiply timing real Thumb-1
// cores use: 1 cycle plus 1 internal cycle per significant byte of the
// multiplier, so 2 to 5 cycles, or 1 cycle for a zero multiplier.
func mulCycles(multiplier uint32) uint64 {
	for shift, cycles := 24, uint64(4); shift >= 0; shift, cycles = shift-8, cycles-1 {
		if multiplier>>uint(shift) != 0 {
			return cycles + 1
		}
	}
	return 1
}

// execHiRegOp: format 5, ADD/CMP/MOV on registers including r8-r15.
func execHiRegOp(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	rs := s.Get(in.Rs)
	switch in.Sub {
	case decode.ADD:
		result := s.Get(in.Rd) + rs
		if in.Rd == cpu.PC {
			if result&1 == 0 {
				return 1, &Fault{Reason: "write to pc with bit 0 clear"}
			}
			s.Set(cpu.PC, result&^1)
			s.BranchTaken = true
		} else {
			s.Set(in.Rd, result)
		}
	case decode.CMP:
		a := s.Get(in.Rd)
		result, carry, overflow := cpu.AddWithCarry(a, ^rs, true)
		s.Flags.SetArithmetic(result, carry, overflow)
	case decode.MOV:
		if in.Rd == cpu.PC {
			if rs&1 == 0 {
				return 1, &Fault{Reason: "write to pc with bit 0 clear"}
			}
			s.Set(cpu.PC, rs&^1)
			s.BranchTaken = true
		} else {
			s.Set(in.Rd, rs)
		}
	}
	return 1, nil
}

// execBranchExchange: format 5, BX/BLX Rm. Thumb-only execution (spec
// Non-goals exclude ARM-mode interworking): a target with the mode bit
// (bit 0) clear is a fault, and the bit is cleared before the target is
// written to PC.
func execBranchExchange(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	target := s.Get(in.Rm)
	if target&1 == 0 {
		return 3, &Fault{Reason: "write to pc with bit 0 clear"}
	}
	if in.R {
		s.Set(cpu.LR, s.RawPC()+2)
	}
	s.Set(cpu.PC, target&^1)
	s.BranchTaken = true
	return 3, nil
}
