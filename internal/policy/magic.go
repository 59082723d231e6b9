package policy

import (
	"github.com/intermittent-sim/ehsim/internal/capacitor"
	"github.com/intermittent-sim/ehsim/internal/stats"
)

// Magic constants reuse ODAB's capacitor sizing so the two schemes can be
// compared on the same energy trace; only the activation threshold and the
// backup/restore behaviour differ.
const (
	magicCapacitanceFarads = 470e-9
	magicMaxVoltage        = 7.5
	magicClockHz           = 8000
	magicInstructionEnergy = 31.25e-12
)

// Magic is the "do nothing" scheme spec §6 names without describing: every
// byte of architectural and application state is assumed non-volatile by
// fiat, so backup and restore are free, zero-cycle no-ops, and the
// processor is active as long as it can afford one more instruction. It
// exists to exercise the admissibility requirement that a Scheme may
// volatilize nothing at all.
type Magic struct {
	battery *capacitor.Capacitor
}

// NewMagic returns a fresh Magic scheme with an empty battery.
func NewMagic() *Magic {
	return &Magic{battery: capacitor.New(magicCapacitanceFarads, magicMaxVoltage)}
}

func (m *Magic) Battery() *capacitor.Capacitor { return m.battery }

func (m *Magic) ClockFrequency() float64 { return magicClockHz }

func (m *Magic) IsActive(_ *stats.Totals) bool {
	return m.battery.StoredEnergy() > magicInstructionEnergy
}

func (m *Magic) ExecuteInstruction(totals *stats.Totals) {
	m.battery.ConsumeEnergy(magicInstructionEnergy)
	totals.RecordInstruction(magicInstructionEnergy)
}

// WillBackup never triggers: Magic has nothing to lose, so it never spends
// energy or cycles checkpointing.
func (m *Magic) WillBackup(_ *stats.Totals) bool {
	return false
}

func (m *Magic) Backup(totals *stats.Totals) uint64 {
	totals.RecordBackup(0)
	return 0
}

func (m *Magic) Restore(totals *stats.Totals) uint64 {
	totals.RecordRestore(0)
	return 0
}
