package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/intermittent-sim/ehsim/internal/output"
	"github.com/intermittent-sim/ehsim/internal/stats"
)

func sampleTotals() *stats.Totals {
	totals := &stats.Totals{}
	totals.RecordCycle()
	totals.RecordInstruction(31.25e-12)
	totals.RecordHarvest(1e-3)
	totals.RecordPowerFailure(stats.ActivePeriod{StartCycle: 0, EndCycle: 10, Instructions: 4})
	return totals
}

func TestWriteYAMLContainsTotals(t *testing.T) {
	var buf bytes.Buffer
	report := output.NewReport(sampleTotals(), output.FinalState{DriverState: "POWERED_OFF"})

	if err := output.Write(&buf, report, output.YAML); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "power_failures: 1") {
		t.Errorf("YAML output missing power_failures field:\n%s", buf.String())
	}
}

func TestWriteJSONContainsActivePeriods(t *testing.T) {
	var buf bytes.Buffer
	report := output.NewReport(sampleTotals(), output.FinalState{DriverState: "POWERED_OFF"})

	if err := output.Write(&buf, report, output.JSON); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"active_periods"`) {
		t.Errorf("JSON output missing active_periods field:\n%s", buf.String())
	}
}

func TestWriteUnknownFormatIsAnError(t *testing.T) {
	var buf bytes.Buffer
	report := output.NewReport(sampleTotals(), output.FinalState{})

	if err := output.Write(&buf, report, output.Format("toml")); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}
