// Package harvester models the ambient power source the simulated device
// scavenges energy from: a table of power-vs-time samples, read from a CSV
// trace file, resampled onto the simulation's own cycle clock (spec §6).
package harvester

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Sample is one row of a power trace: a timestamp in seconds and the
// instantaneous power available at that time, in watts.
type Sample struct {
	TimeSeconds float64
	Watts       float64
}

// Trace is an immutable, time-ordered power trace. PowerAt resamples it
// onto whatever clock frequency the driver asks for, holding the most
// recent sample's value constant between measurements (a zero-order hold,
// matching how a hardware power monitor would be read).
type Trace struct {
	samples []Sample
}

// Load reads a two-column CSV power trace (time_seconds,watts) from path.
// A header row is tolerated: any row whose first field fails to parse as a
// float is skipped rather than treated as an error.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("harvester: open trace: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a two-column (time_seconds,watts) CSV power trace from r. It
// is exported separately from Load so tests can exercise it against an
// in-memory reader instead of a file.
func Parse(r io.Reader) (*Trace, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var samples []Sample
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("harvester: read trace row: %w", err)
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue // header row
		}
		w, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("harvester: parse watts %q: %w", record[1], err)
		}
		samples = append(samples, Sample{TimeSeconds: t, Watts: w})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("harvester: trace has no samples")
	}
	return &Trace{samples: samples}, nil
}

// Constant returns a Trace that supplies a fixed power level forever,
// useful for scenarios that don't need a recorded trace (spec §8's
// infinite-power seed scenario).
func Constant(watts float64) *Trace {
	return &Trace{samples: []Sample{{TimeSeconds: 0, Watts: watts}}}
}

// PowerAt returns the energy, in joules, available to harvest during the
// single clock cycle numbered cycle, given the scheme's clock frequency.
// It walks the trace to find the sample whose timestamp covers
// cycle/clockHz and multiplies its wattage by the cycle period.
func (t *Trace) PowerAt(cycle uint64, clockHz float64) float64 {
	period := 1.0 / clockHz
	now := float64(cycle) * period
	watts := t.samples[0].Watts
	for _, s := range t.samples {
		if s.TimeSeconds > now {
			break
		}
		watts = s.Watts
	}
	return watts * period
}

