package stats_test

import (
	"testing"

	"github.com/intermittent-sim/ehsim/internal/stats"
)

func TestRecordInstructionAccumulates(t *testing.T) {
	var totals stats.Totals
	totals.RecordInstruction(31.25e-12)
	totals.RecordInstruction(31.25e-12)
	if totals.Instructions != 2 {
		t.Errorf("Instructions = %d, want 2", totals.Instructions)
	}
	if got, want := totals.InstructionEnergy, 62.5e-12; got != want {
		t.Errorf("InstructionEnergy = %v, want %v", got, want)
	}
}

func TestRecordPowerFailureAppendsPeriod(t *testing.T) {
	var totals stats.Totals
	totals.RecordPowerFailure(stats.ActivePeriod{StartCycle: 0, EndCycle: 100, BackupCycles: []uint64{40, 80}})
	if totals.PowerFailures != 1 {
		t.Errorf("PowerFailures = %d, want 1", totals.PowerFailures)
	}
	if len(totals.Periods) != 1 {
		t.Fatalf("len(Periods) = %d, want 1", len(totals.Periods))
	}
	if got := len(totals.Periods[0].BackupCycles); got != 2 {
		t.Errorf("len(BackupCycles) = %d, want 2 — a backup partway through a period must not end it", got)
	}
}

func TestActivePeriodDuration(t *testing.T) {
	p := stats.ActivePeriod{StartCycle: 10, EndCycle: 35}
	if got := p.Duration(); got != 25 {
		t.Errorf("Duration() = %d, want 25", got)
	}
}
