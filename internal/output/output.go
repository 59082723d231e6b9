// Package output serializes a finished run's statistics to YAML or JSON
// (spec §6's "structured dump": totals, active-period records, and a
// final-state snapshot). It owns no simulation logic; it only shapes
// stats.Totals and a driver snapshot into a document and writes it out
// with gopkg.in/yaml.v3, the serialization library the rest of the
// examples pack reaches for over stdlib encoding/json-by-default.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/intermittent-sim/ehsim/internal/stats"
)

// ActivePeriodReport is the serialized shape of one stats.ActivePeriod.
type ActivePeriodReport struct {
	StartCycle        uint64   `yaml:"start_cycle" json:"start_cycle"`
	EndCycle          uint64   `yaml:"end_cycle" json:"end_cycle"`
	Cycles            uint64   `yaml:"cycles" json:"cycles"`
	Instructions      uint64   `yaml:"instructions" json:"instructions"`
	InstructionEnergy float64  `yaml:"instruction_energy_joules" json:"instruction_energy_joules"`
	BackupCycles      []uint64 `yaml:"backup_cycles" json:"backup_cycles"`
}

// FinalState is a snapshot of where the simulation stood when it stopped,
// independent of any one scheme's notion of volatility.
type FinalState struct {
	DriverState  string  `yaml:"driver_state" json:"driver_state"`
	PC           uint32  `yaml:"pc" json:"pc"`
	StoredEnergy float64 `yaml:"stored_energy_joules" json:"stored_energy_joules"`
}

// Report is the full document this package writes: run totals, the
// completed active periods, and the final-state snapshot.
type Report struct {
	Cycles            uint64               `yaml:"cycles" json:"cycles"`
	Instructions      uint64               `yaml:"instructions" json:"instructions"`
	PowerFailures     uint64               `yaml:"power_failures" json:"power_failures"`
	Backups           uint64               `yaml:"backups" json:"backups"`
	Restores          uint64               `yaml:"restores" json:"restores"`
	BackupEnergy      float64              `yaml:"backup_energy_joules" json:"backup_energy_joules"`
	RestoreEnergy     float64              `yaml:"restore_energy_joules" json:"restore_energy_joules"`
	InstructionEnergy float64              `yaml:"instruction_energy_joules" json:"instruction_energy_joules"`
	HarvestedEnergy   float64              `yaml:"harvested_energy_joules" json:"harvested_energy_joules"`
	ActivePeriods     []ActivePeriodReport `yaml:"active_periods" json:"active_periods"`
	FinalState        FinalState           `yaml:"final_state" json:"final_state"`
}

// NewReport builds a Report from run totals and a final-state snapshot.
func NewReport(totals *stats.Totals, final FinalState) Report {
	periods := make([]ActivePeriodReport, len(totals.Periods))
	for i, p := range totals.Periods {
		periods[i] = ActivePeriodReport{
			StartCycle:        p.StartCycle,
			EndCycle:          p.EndCycle,
			Cycles:            p.Cycles,
			Instructions:      p.Instructions,
			InstructionEnergy: p.InstructionEnergy,
			BackupCycles:      p.BackupCycles,
		}
	}
	return Report{
		Cycles:            totals.Cycles,
		Instructions:      totals.Instructions,
		PowerFailures:     totals.PowerFailures,
		Backups:           totals.Backups,
		Restores:          totals.Restores,
		BackupEnergy:      totals.BackupEnergy,
		RestoreEnergy:     totals.RestoreEnergy,
		InstructionEnergy: totals.InstructionEnergy,
		HarvestedEnergy:   totals.HarvestedEnergy,
		ActivePeriods:     periods,
		FinalState:        final,
	}
}

// Format selects the serialization this package emits.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// Write serializes report in the requested format to w.
func Write(w io.Writer, report Report, format Format) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	default:
		return fmt.Errorf("output: unknown format %q", format)
	}
}
