package executor

import (
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/decode"
	"github.com/intermittent-sim/ehsim/internal/memory"
)

// execCondBranch: format 16, Bcc #offset. Untaken branches still cost a
// cycle for the fetch; taken branches pay the pipeline refill.
func execCondBranch(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	if !condition(in.Cond, s.Flags) {
		return 1, nil
	}
	s.Set(cpu.PC, uint32(int64(s.Get(cpu.PC))+int64(in.Offset)))
	s.BranchTaken = true
	return 3, nil
}

// execUncondBranch: format 18, B #offset.
func execUncondBranch(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	s.Set(cpu.PC, uint32(int64(s.Get(cpu.PC))+int64(in.Offset)))
	s.BranchTaken = true
	return 3, nil
}

// execBranchLinkHigh: format 19 first halfword. Stashes the partially
// computed target; the instruction is not complete until the following
// halfword decodes as BranchLinkLow.
func execBranchLinkHigh(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	s.PendingBLTarget = uint32(int64(s.Get(cpu.PC)) + int64(in.Offset))
	s.HasPendingBL = true
	return 1, nil
}

// execBranchLinkLow: format 19 second halfword. Completes the branch
// latched by execBranchLinkHigh, setting LR to the address immediately
// after this halfword. A low halfword with no matching high halfword (e.g.
// after a restore landed mid-pair) is a fault: BL's two halfwords are not
// independently restartable under this driver.
func execBranchLinkLow(s *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	if !s.HasPendingBL {
		return 1, &Fault{Reason: "BL second halfword without a preceding first halfword"}
	}
	target := s.PendingBLTarget + (in.Imm << 1)
	s.Set(cpu.LR, s.RawPC()+2)
	s.Set(cpu.PC, target)
	s.HasPendingBL = false
	s.BranchTaken = true
	return 3, nil
}

// execSoftwareInterrupt: format 17, SWI #imm8. The program's supervisor
// call is the normal end-of-simulation signal (spec §4.7, §6), distinct
// from a fatal fault: it costs one cycle like any other instruction, then
// asks the driver to stop with a clean exit rather than a crash.
func execSoftwareInterrupt(_ *cpu.State, _ *memory.Memory, in decode.Instruction) (uint64, error) {
	return 1, Halted
}
