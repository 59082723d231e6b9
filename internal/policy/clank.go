package policy

import (
	"github.com/intermittent-sim/ehsim/internal/capacitor"
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/stats"
)

// Clank constants. MEMENTOS_CAPACITANCE/MEMENTOS_MAX_CAPACITOR_VOLTAGE and
// the CLANK_* energy/time penalties live in data_sheet.hpp, which is not
// part of the retrieval pack; these values follow the Mementos platform
// description the paper in clank.hpp's doc comment cites (an MSP430 with a
// coin-cell-scale supercapacitor) and are noted here as an approximation,
// not a literal transcription.
const (
	clankCapacitanceFarads = 100e-6
	clankMaxVoltage        = 3.6
	clankClockHz           = 8000000
	clankInstructionEnergy = 1.1e-9
	clankBackupEnergy      = 1.2e-6
	clankBackupCycles      = 1200
	clankRestoreEnergy     = 1.2e-6

	// DefaultClankReadWriteEntries and DefaultClankWatchdogPeriod match the
	// original's clank() no-argument constructor: clank(8, 8, 8000).
	DefaultClankReadWriteEntries = 8
	DefaultClankWatchdogPeriod   = 8000
)

// Clank tracks read-first/write-first idempotency buffers over data-memory
// accesses and a progress watchdog, grounded on
// original_source/eh-sim/src/scheme/clank.hpp. Unlike ODAB, Clank treats
// the CPU's architectural state as volatile: Backup snapshots it, Restore
// reinstates it, and a detected idempotency violation can force an
// immediate power-off before the battery would otherwise demand one.
type Clank struct {
	battery *capacitor.Capacitor

	watchdogPeriod    int
	readFirstEntries  int
	writeFirstEntries int
	maxBackupEnergy   float64

	progressWatchdog    int
	idempotentViolation bool
	active              bool

	readFirstBuffer  map[uint32]struct{}
	writeFirstBuffer map[uint32]struct{}

	cpuState      *cpu.State
	architectural cpu.Snapshot
}

// NewClank returns a Clank scheme with the given idempotency buffer sizes
// and watchdog period.
func NewClank(readWriteEntries, writeEntries, watchdogPeriod int) *Clank {
	return &Clank{
		battery:           capacitor.New(clankCapacitanceFarads, clankMaxVoltage),
		watchdogPeriod:    watchdogPeriod,
		readFirstEntries:  readWriteEntries,
		writeFirstEntries: writeEntries,
		maxBackupEnergy:   clankBackupEnergy,
		progressWatchdog:  watchdogPeriod,
		readFirstBuffer:   make(map[uint32]struct{}),
		writeFirstBuffer:  make(map[uint32]struct{}),
	}
}

func (c *Clank) Battery() *capacitor.Capacitor { return c.battery }

func (c *Clank) ClockFrequency() float64 { return clankClockHz }

// AttachCPU gives Clank the register-file reference Backup/Restore need to
// snapshot and reinstate architectural state. The driver calls this once,
// right after constructing both the CPU and the scheme, implementing the
// policy.CPUObserver hook.
func (c *Clank) AttachCPU(s *cpu.State) {
	c.cpuState = s
}

func (c *Clank) ExecuteInstruction(totals *stats.Totals) {
	c.battery.ConsumeEnergy(clankInstructionEnergy)
	totals.RecordInstruction(clankInstructionEnergy)
	c.progressWatchdog--
}

// IsActive mirrors the original's power_on()/power_off() transitions: a
// full battery always re-activates the processor and resets the watchdog;
// a battery too empty to run one more instruction powers it off.
func (c *Clank) IsActive(_ *stats.Totals) bool {
	if c.battery.StoredEnergy() >= c.battery.EnergyAt(c.battery.MaxVoltage()) {
		c.powerOn()
	} else if c.battery.StoredEnergy() <= clankInstructionEnergy {
		c.powerOff()
	}
	return c.active
}

func (c *Clank) powerOn() {
	c.active = true
	c.progressWatchdog = c.watchdogPeriod
}

func (c *Clank) powerOff() {
	c.active = false
	c.clearBuffers()
}

func (c *Clank) clearBuffers() {
	c.readFirstBuffer = make(map[uint32]struct{})
	c.writeFirstBuffer = make(map[uint32]struct{})
}

// WillBackup requires enough energy for a backup, then backs up either
// because the watchdog expired (no checkpoint in too long) or because an
// idempotency violation has already been detected this period.
func (c *Clank) WillBackup(_ *stats.Totals) bool {
	if c.battery.StoredEnergy() < c.maxBackupEnergy {
		return false
	}
	if c.progressWatchdog <= 0 {
		return true
	}
	return c.idempotentViolation
}

func (c *Clank) Backup(totals *stats.Totals) uint64 {
	if c.cpuState != nil {
		c.architectural = c.cpuState.Save()
	}
	c.clearBuffers()
	c.idempotentViolation = false
	c.battery.ConsumeEnergy(clankBackupEnergy)
	totals.RecordBackup(clankBackupEnergy)
	return clankBackupCycles
}

func (c *Clank) Restore(totals *stats.Totals) uint64 {
	if c.cpuState != nil {
		c.cpuState.Restore(c.architectural)
	}
	c.battery.ConsumeEnergy(clankRestoreEnergy)
	totals.RecordRestore(clankRestoreEnergy)
	return clankBackupCycles
}

// ObserveAccesses implements policy.MemoryObserver: the driver calls this
// once per instruction with the data-memory addresses it touched, feeding
// Clank's idempotency detection without memory or executor needing to know
// a policy exists.
func (c *Clank) ObserveAccesses(accesses []cpu.MemoryAccess) {
	for _, a := range accesses {
		c.detectViolation(a.Addr, a.Write)
		if c.idempotentViolation && c.battery.StoredEnergy() < c.maxBackupEnergy {
			c.powerOff()
		}
	}
}

// detectViolation implements the original's read-first/write-first buffer
// logic: an address seen for the first time since the last backup is
// classified by the operation that first touched it; a write to an
// address already classified read-first is an idempotency violation, as
// is any access that would overflow either buffer.
func (c *Clank) detectViolation(addr uint32, write bool) {
	_, readHit := c.readFirstBuffer[addr]
	_, writeHit := c.writeFirstBuffer[addr]

	if !readHit && !writeHit {
		var added bool
		if write {
			added = tryInsert(c.writeFirstBuffer, addr, c.writeFirstEntries)
		} else {
			added = tryInsert(c.readFirstBuffer, addr, c.readFirstEntries)
		}
		if !added {
			c.idempotentViolation = true
		}
		return
	}
	if write && readHit {
		c.idempotentViolation = true
	}
}

func tryInsert(buffer map[uint32]struct{}, addr uint32, maxEntries int) bool {
	if len(buffer) < maxEntries {
		buffer[addr] = struct{}{}
		return true
	}
	return false
}
