// Package policy defines the pluggable backup/restore boundary the driver
// runs against (spec §4.6): a Scheme decides when the processor is active,
// when to back up, and what backing up and restoring cost, without the
// driver ever having to know which of the CPU's state it actually
// volatilizes. ODAB, Clank, and Magic are three schemes with very
// different answers to that question, grounded on
// original_source/eh-sim/src/scheme/*.hpp.
package policy

import (
	"fmt"

	"github.com/intermittent-sim/ehsim/internal/capacitor"
	"github.com/intermittent-sim/ehsim/internal/cpu"
	"github.com/intermittent-sim/ehsim/internal/stats"
)

// CPUObserver is implemented by schemes that need a reference to the
// register file to snapshot or reinstate it (Clank). The driver calls
// AttachCPU once, right after constructing the CPU and the scheme; ODAB
// and Magic do not implement this, since they never touch CPU state.
type CPUObserver interface {
	AttachCPU(s *cpu.State)
}

// MemoryObserver is implemented by schemes that track data-memory access
// patterns (Clank's idempotency buffers). The driver calls ObserveAccesses
// once per instruction with whatever addresses the executor touched;
// schemes that don't care about access patterns do not implement this.
type MemoryObserver interface {
	ObserveAccesses(accesses []cpu.MemoryAccess)
}

// Scheme is the interface the driver depends on. Implementations own a
// capacitor and decide, cycle by cycle, whether the processor has enough
// energy to keep running, to perform a backup, or must instead power off.
type Scheme interface {
	// Battery returns the capacitor this scheme charges and discharges.
	Battery() *capacitor.Capacitor

	// ClockFrequency is the CPU clock rate in Hz; one driver tick advances
	// simulated time by 1/ClockFrequency() seconds.
	ClockFrequency() float64

	// IsActive reports whether the processor has enough stored energy to
	// keep executing instructions.
	IsActive(totals *stats.Totals) bool

	// ExecuteInstruction charges the cost of one executed instruction
	// against the battery and records it in totals.
	ExecuteInstruction(totals *stats.Totals)

	// WillBackup reports whether the scheme has decided to back up on this
	// cycle, before the capacitor necessarily runs dry.
	WillBackup(totals *stats.Totals) bool

	// Backup performs the backup this scheme defines (which may be a
	// no-op) and returns how many cycles it takes.
	Backup(totals *stats.Totals) uint64

	// Restore performs the restore this scheme defines (which may be a
	// no-op) and returns how many cycles it takes.
	Restore(totals *stats.Totals) uint64
}

// Factory constructs a fresh Scheme instance, used by Registry so the CLI
// can select a policy by name.
type Factory func() Scheme

// Registry maps policy names to constructors, the Go analogue of the
// original project's scheme-name command-line switch.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a Registry pre-populated with the three schemes this
// repository ships.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("odab", func() Scheme { return NewODAB() })
	r.Register("clank", func() Scheme { return NewClank(DefaultClankReadWriteEntries, DefaultClankReadWriteEntries, DefaultClankWatchdogPeriod) })
	r.Register("magic", func() Scheme { return NewMagic() })
	return r
}

// Register adds or replaces a named factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New constructs the named scheme, or an error if no such policy is
// registered — a configuration error (exit code 2 per spec §7), not a
// simulation fault.
func (r *Registry) New(name string) (Scheme, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q", name)
	}
	return f(), nil
}

// Names returns the registered policy names, for the CLI's "policies"
// command.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}
