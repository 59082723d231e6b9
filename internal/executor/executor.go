// Package executor carries out a decoded Instruction against a CPU and
// memory: it is the only place register and memory state actually change.
// Handlers are organised as a dispatch table keyed on decode.Op, mirroring
// the per-format execute bodies in the teacher's thumb.go but operating on
// an already-decoded Instruction value rather than a closure over the raw
// opcode (spec §4.4).
package executor

import (
	"errors"
	"fmt"

	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/decode"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

// Fault reports an execution-time error: an undefined opcode, a malformed
// STM register list, or a memory access that faulted partway through an
// instruction.
type Fault struct {
	Reason string
	Err    error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Reason, f.Err)
	}
	return f.Reason
}

func (f *Fault) Unwrap() error { return f.Err }

// Halted is the sentinel a supervisor call returns to signal normal,
// program-requested end of simulation (spec §4.7/§6: exit code 0), as
// opposed to a Fault (exit code 1). Callers distinguish the two with
// errors.Is, the same way the teacher's cpu.go exposes ResetMidInstruction
// as a checkable sentinel alongside its ordinary errors.
var Halted = errors.New("execution halted: program issued an end-of-simulation supervisor call")

type handler func(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error)

var table = map[decode.Op]handler{
	decode.ShiftImm:            execShiftImm,
	decode.AddSubReg:           execAddSubReg,
	decode.MovCmpAddSubImm8:    execMovCmpAddSubImm8,
	decode.ALU:                 execALU,
	decode.HiRegOp:             execHiRegOp,
	decode.BranchExchange:      execBranchExchange,
	decode.PCRelativeLoad:      execPCRelativeLoad,
	decode.LoadStoreReg:        execLoadStoreReg,
	decode.LoadStoreSignExt:    execLoadStoreSignExt,
	decode.LoadStoreImm:        execLoadStoreImm,
	decode.LoadStoreHalfImm:    execLoadStoreHalfImm,
	decode.SPRelLoadStore:      execSPRelLoadStore,
	decode.LoadAddress:         execLoadAddress,
	decode.AddOffsetToSP:       execAddOffsetToSP,
	decode.PushPop:             execPushPop,
	decode.MultipleLoadStore:   execMultipleLoadStore,
	decode.CondBranch:          execCondBranch,
	decode.SoftwareInterrupt:   execSoftwareInterrupt,
	decode.UncondBranch:        execUncondBranch,
	decode.BranchLinkHigh:      execBranchLinkHigh,
	decode.BranchLinkLow:       execBranchLinkLow,
}

// Execute dispatches in to its handler, returning the number of cycles it
// consumed. An undefined opcode is a fatal Fault, matching spec.md's
// directive that an unknown Thumb encoding aborts the simulation rather
// than being silently skipped.
func Execute(s *cpu.State, m *memory.Memory, in decode.Instruction) (uint64, error) {
	s.BranchTaken = false
	s.Accesses = s.Accesses[:0]
	h, ok := table[in.Op]
	if !ok {
		return 0, &Fault{Reason: fmt.Sprintf("undefined opcode %#04x", in.Raw)}
	}
	cycles, err := h(s, m, in)
	if err != nil {
		if errors.Is(err, Halted) {
			return cycles, Halted
		}
		return cycles, &Fault{Reason: "instruction execution failed", Err: err}
	}
	return cycles, nil
}

// condition evaluates the 16-way ARM condition code, the same switch the
// teacher's status.go condition() implements, against the current flags.
func condition(cond uint8, f cpu.Flags) bool {
	switch cond {
	case 0x0: // EQ
		return f.Z
	case 0x1: // NE
		return !f.Z
	case 0x2: // CS/HS
		return f.C
	case 0x3: // CC/LO
		return !f.C
	case 0x4: // MI
		return f.N
	case 0x5: // PL
		return !f.N
	case 0x6: // VS
		return f.V
	case 0x7: // VC
		return !f.V
	case 0x8: // HI
		return f.C && !f.Z
	case 0x9: // LS
		return !f.C || f.Z
	case 0xa: // GE
		return f.N == f.V
	case 0xb: // LT
		return f.N != f.V
	case 0xc: // GT
		return f.N == f.V && !f.Z
	case 0xd: // LE
		return f.N != f.V || f.Z
	case 0xe: // AL
		return true
	default: // 0xf reserved in Thumb conditional branch; treated as never
		return false
	}
}

func popcount8(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}
