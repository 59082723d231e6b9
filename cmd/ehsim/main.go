// Command ehsim runs the intermittent-execution simulator: load a program
// image, wire a harvester trace and a backup/restore policy to the
// driver, run it for a configured number of cycles, and dump statistics.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/intermittent-sim/ehsim/internal/driver"
	"github.com/intermittent-sim/ehsim/internal/harvester"
	"github.com/intermittent-sim/ehsim/internal/loader"
	"github.com/intermittent-sim/ehsim/internal/logging"
	"github.com/intermittent-sim/ehsim/internal/memory"
	"github.com/intermittent-sim/ehsim/internal/output"
	"github.com/intermittent-sim/ehsim/internal/policy"
)

// exitCoder lets a command report one of spec §6/§7's three exit codes
// without os.Exit-ing from inside cobra's RunE, so main can flush output
// first.
type exitCoder struct {
	code int
	err  error
}

func (e *exitCoder) Error() string { return e.err.Error() }
func (e *exitCoder) Unwrap() error { return e.err }

var (
	capacitanceFarads  float64
	maxVoltageOverride float64
	programPath        string
	tracePath          string
	policyName         string
	maxCycles          uint64
	dataSize           int
	outputPath         string
	outputFormat       string
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		var ec *exitCoder
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		os.Exit(2)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ehsim",
		Short: "Cycle-accurate simulator for intermittently-powered processors",
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newPoliciesCommand())
	return root
}

func newPoliciesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List the backup/restore policies this build supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range policy.NewRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a program under the intermittent-power simulator",
		RunE:  runSimulation,
	}

	flags := cmd.Flags()
	flags.StringVar(&programPath, "program", "", "path to the program image (flat binary or ELF)")
	flags.StringVar(&tracePath, "trace", "", "path to a CSV harvester power trace; omit for a constant 1mW source")
	flags.StringVar(&policyName, "policy", "odab", "backup/restore policy name (see 'ehsim policies')")
	flags.Uint64Var(&maxCycles, "max-cycles", 1_000_000, "maximum number of simulated cycles to run")
	flags.IntVar(&dataSize, "data-size", 8192, "size in bytes of the data region")
	flags.StringVar(&outputPath, "output", "", "path to write statistics to; defaults to stdout")
	flags.StringVar(&outputFormat, "format", "yaml", "statistics output format: yaml or json")
	flags.Float64Var(&capacitanceFarads, "capacitance", 0, "override the policy's built-in capacitance, in farads")
	flags.Float64Var(&maxVoltageOverride, "max-voltage", 0, "override the policy's built-in maximum voltage, in volts")

	cmd.MarkFlagRequired("program")

	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if programPath == "" {
		return &exitCoder{code: 2, err: fmt.Errorf("ehsim: --program is required")}
	}

	scheme, err := policy.NewRegistry().New(policyName)
	if err != nil {
		logging.Errorf("config", "unknown policy %q: %v", policyName, err)
		return &exitCoder{code: 2, err: err}
	}
	if capacitanceFarads > 0 || maxVoltageOverride > 0 {
		battery := scheme.Battery()
		c, v := battery.Capacitance(), battery.MaxVoltage()
		if capacitanceFarads > 0 {
			c = capacitanceFarads
		}
		if maxVoltageOverride > 0 {
			v = maxVoltageOverride
		}
		battery.Resize(c, v)
	}

	const codeSize = 1 << 16
	mem := memory.New(0, codeSize, uint32(codeSize), dataSize)

	entryPoint, err := loader.Load(programPath, mem)
	if err != nil {
		logging.Errorf("config", "failed to load program %s: %v", programPath, err)
		return &exitCoder{code: 2, err: err}
	}

	var trace *harvester.Trace
	if tracePath != "" {
		trace, err = harvester.Load(tracePath)
		if err != nil {
			logging.Errorf("config", "failed to load harvester trace %s: %v", tracePath, err)
			return &exitCoder{code: 2, err: err}
		}
	} else {
		trace = harvester.Constant(1e-3)
	}

	d := driver.New(mem, scheme, trace, entryPoint)

	runErr := d.Run(maxCycles)

	final := output.FinalState{
		DriverState:  d.State().String(),
		PC:           d.CPU.RawPC(),
		StoredEnergy: scheme.Battery().StoredEnergy(),
	}
	report := output.NewReport(d.Totals, final)

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, ferr := os.Create(outputPath)
		if ferr != nil {
			return &exitCoder{code: 2, err: ferr}
		}
		defer f.Close()
		out = f
	}
	if writeErr := output.Write(out, report, output.Format(outputFormat)); writeErr != nil {
		return &exitCoder{code: 2, err: writeErr}
	}

	if runErr != nil {
		var fault *driver.Fault
		if errors.As(runErr, &fault) {
			logging.Errorf("driver", "%v", fault)
			return &exitCoder{code: 1, err: fault}
		}
		return &exitCoder{code: 1, err: runErr}
	}

	return nil
}
