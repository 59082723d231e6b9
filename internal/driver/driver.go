// Package driver runs the intermittent-execution state machine described
// in spec §4.7: POWERED_OFF, RESTORING, ACTIVE, and BACKING_UP, plus the
// terminal HALTED state reached by a program's own supervisor call. The
// driver fetches, decodes, and executes Thumb-1 instructions while the
// capacitor holds enough energy, and defers every "what survives a power
// failure" decision to the policy.Scheme it was constructed with — it
// never inspects which of the CPU's state a scheme treats as volatile.
package driver

import (
	"errors"
	"fmt"

	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/decode"
	"github.com/intermittent-sim/ehsim/internal/executor"
	"github.com/intermittent-sim/ehsim/internal/harvester"
	"github.com/intermittent-sim/ehsim/internal/memory"
	"github.com/intermittent-sim/ehsim/internal/policy"
	"github.com/intermittent-sim/ehsim/internal/stats"
)

// State identifies which phase of the intermittent-execution state machine
// the driver currently occupies. Halted is a terminal state reached only
// by a program-issued supervisor call, not by any of the four spec §4.7
// phases.
type State int

const (
	PoweredOff State = iota
	Restoring
	Active
	BackingUp
	Halted
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "POWERED_OFF"
	case Restoring:
		return "RESTORING"
	case Active:
		return "ACTIVE"
	case BackingUp:
		return "BACKING_UP"
	case Halted:
		return "HALTED"
	default:
		return "UNKNOWN"
	}
}

// Fault is a fatal simulation error — an undefined opcode, a bus fault, a
// malformed STM — that aborts the run. The CLI maps this to exit code 1
// (spec §7).
type Fault struct {
	Cycle uint64
	PC    uint32
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fatal fault at cycle %d, pc %#08x: %v", f.Cycle, f.PC, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// Driver owns the CPU, memory, scheme, and stats for one simulation run.
type Driver struct {
	CPU    *cpu.State
	Memory *memory.Memory
	Scheme policy.Scheme
	Trace  *harvester.Trace
	Totals *stats.Totals

	state   State
	current stats.ActivePeriod

	// periodOpen is true from the moment a restore starts current until it
	// is recorded, either by a power failure or by flushOpenPeriod at the
	// end of Run — so a run that stops for any other reason (a halt, or
	// hitting maxCycles) still accounts for the instructions executed
	// during its last, still-open active period.
	periodOpen bool

	// transitionCyclesRemaining counts down the fixed-length RESTORING and
	// BACKING_UP phases the scheme's Backup/Restore return.
	transitionCyclesRemaining uint64
}

// New constructs a Driver positioned in POWERED_OFF, with the given entry
// point as the reset vector restore will eventually resume at.
func New(mem *memory.Memory, scheme policy.Scheme, trace *harvester.Trace, entryPoint uint32) *Driver {
	state := cpu.NewState(mem.StackTop(), 0, entryPoint)
	if observer, ok := scheme.(policy.CPUObserver); ok {
		observer.AttachCPU(state)
	}
	return &Driver{
		CPU:    state,
		Memory: mem,
		Scheme: scheme,
		Trace:  trace,
		Totals: &stats.Totals{},
		state:  PoweredOff,
	}
}

// State reports the driver's current state-machine phase.
func (d *Driver) State() State { return d.state }

// Run drives the simulation, step by step, until the global cycle counter
// reaches maxCycles, the program halts itself, or a Fault aborts it. The
// CLI always supplies a positive maxCycles (spec §6); an unbounded run
// against a trace that never recharges the capacitor would otherwise spin
// forever once POWERED_OFF. Whatever the stop reason, the active period in
// progress (if any) is flushed before returning, so Totals.Periods always
// sums to Totals.Instructions (spec §8).
func (d *Driver) Run(maxCycles uint64) error {
	defer d.flushOpenPeriod()
	for d.Totals.Cycles < maxCycles {
		if err := d.Step(); err != nil {
			return err
		}
		if d.state == Halted {
			return nil
		}
	}
	return nil
}

// flushOpenPeriod records the in-progress active period when a run ends
// for a reason other than a power failure — RecordPowerFailure already
// closes it out in that case, leaving periodOpen false.
func (d *Driver) flushOpenPeriod() {
	if !d.periodOpen {
		return
	}
	d.current.EndCycle = d.Totals.Cycles
	d.Totals.FlushPeriod(d.current)
	d.periodOpen = false
}

// Step advances the simulation by one iteration of the driver's per-cycle
// loop (spec §4.7): harvest, dispatch on the current state, then update
// the global cycle counter. POWERED_OFF, RESTORING, and BACKING_UP each
// advance the clock by exactly one hardware cycle; ACTIVE performs one
// full fetch-decode-execute and advances by however many cycles the
// instruction cost, matching the source's own per-cycle loop where
// "accumulate cycles" folds a whole instruction into one iteration
// rather than stepping the clock literally one pulse at a time.
func (d *Driver) Step() error {
	startCycle := d.Totals.Cycles

	var elapsed uint64 = 1
	var err error
	switch d.state {
	case PoweredOff:
		d.tickPoweredOff()
	case Restoring:
		d.tickRestoring()
	case Active:
		elapsed, err = d.tickActive()
	case BackingUp:
		d.tickBackingUp()
	}

	d.harvest(startCycle, elapsed)
	for i := uint64(0); i < elapsed; i++ {
		d.Totals.RecordCycle()
	}
	return err
}

// harvest deposits the energy available across [startCycle, startCycle+n)
// into the battery, sampling the trace once per hardware cycle so a
// multi-cycle instruction harvests the same total a cycle-by-cycle loop
// would.
func (d *Driver) harvest(startCycle, n uint64) {
	if d.Trace == nil {
		return
	}
	clockHz := d.Scheme.ClockFrequency()
	var total float64
	for c := startCycle; c < startCycle+n; c++ {
		total += d.Trace.PowerAt(c, clockHz)
	}
	overflow := d.Scheme.Battery().HarvestEnergy(total)
	d.Totals.RecordHarvest(total - overflow)
}

func (d *Driver) tickPoweredOff() {
	if d.Scheme.IsActive(d.Totals) {
		d.transitionCyclesRemaining = d.Scheme.Restore(d.Totals)
		d.current = stats.ActivePeriod{StartCycle: d.Totals.Cycles}
		d.periodOpen = true
		d.state = Restoring
	}
}

func (d *Driver) tickRestoring() {
	if d.transitionCyclesRemaining > 0 {
		d.transitionCyclesRemaining--
	}
	if d.transitionCyclesRemaining == 0 {
		d.state = Active
	}
}

// tickActive performs one full fetch-decode-execute cycle and returns the
// number of hardware cycles it cost, for Step to fold into the global
// counter and the harvester sampling window.
func (d *Driver) tickActive() (uint64, error) {
	if !d.Scheme.IsActive(d.Totals) {
		d.current.EndCycle = d.Totals.Cycles
		d.Totals.RecordPowerFailure(d.current)
		d.periodOpen = false
		d.state = PoweredOff
		return 1, nil
	}

	pc := d.CPU.RawPC()
	opcode, err := d.Memory.FetchHalfword(pc)
	if err != nil {
		return 1, &Fault{Cycle: d.Totals.Cycles, PC: pc, Err: err}
	}
	in := decode.Decode(opcode)

	cycles, err := executor.Execute(d.CPU, d.Memory, in)
	if errors.Is(err, executor.Halted) {
		energyBefore := d.Totals.InstructionEnergy
		d.Scheme.ExecuteInstruction(d.Totals)
		d.current.InstructionEnergy += d.Totals.InstructionEnergy - energyBefore
		d.current.Cycles += cycles
		d.current.Instructions++
		d.state = Halted
		return cycles, nil
	}
	if err != nil {
		return cycles, &Fault{Cycle: d.Totals.Cycles, PC: pc, Err: err}
	}
	if observer, ok := d.Scheme.(policy.MemoryObserver); ok {
		observer.ObserveAccesses(d.CPU.Accesses)
	}
	if !d.CPU.BranchTaken {
		d.CPU.SetRawPC(pc + 2)
	}

	energyBefore := d.Totals.InstructionEnergy
	d.Scheme.ExecuteInstruction(d.Totals)
	d.current.InstructionEnergy += d.Totals.InstructionEnergy - energyBefore
	d.current.Cycles += cycles
	d.current.Instructions++

	// Per spec §4.7, the backup decision is made after the instruction has
	// executed and its cost accumulated, not before.
	if d.Scheme.WillBackup(d.Totals) {
		d.transitionCyclesRemaining = d.Scheme.Backup(d.Totals)
		d.current.BackupCycles = append(d.current.BackupCycles, d.Totals.Cycles)
		d.state = BackingUp
	}

	return cycles, nil
}

func (d *Driver) tickBackingUp() {
	if d.transitionCyclesRemaining > 0 {
		d.transitionCyclesRemaining--
	}
	if d.transitionCyclesRemaining == 0 {
		d.state = Active
	}
}
