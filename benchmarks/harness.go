// Package benchmarks provides the scenario harness: it drives a device
// under a chosen memory-service cadence and collects cycle counts and
// event streams, the way the hardware testbenches measured latency
// hiding.
package benchmarks

import (
	"fmt"
	"io"

	"github.com/sarchlab/tgsim/gpu"
	"github.com/sarchlab/tgsim/insts"
)

// Scenario defines one device run.
type Scenario struct {
	// Name identifies the scenario.
	Name string

	// Description explains what the scenario measures.
	Description string

	// Program is the instruction image.
	Program []insts.Word

	// Data is the initial data-memory image, loaded at address 0.
	Data []uint8

	// Threads is the total thread count written to the control register.
	Threads int

	// MemInterval services data memory every MemInterval cycles;
	// values below 1 service every cycle.
	MemInterval int

	// MaxCycles bounds the run; 0 uses a generous default.
	MaxCycles uint64
}

// Result holds the measurements of one scenario run.
type Result struct {
	Name string `json:"name"`

	// Cycles is the cycle count at global completion.
	Cycles uint64 `json:"cycles"`

	// Instructions is the total lane-instructions executed.
	Instructions uint64 `json:"instructions"`

	// StallCycles is the total stall cycles summed over cores.
	StallCycles uint64 `json:"stall_cycles"`

	// Blocks is the number of blocks dispatched.
	Blocks int `json:"blocks"`

	// DispatchOrder and CompletionOrder are the block-id streams.
	DispatchOrder   []int `json:"dispatch_order"`
	CompletionOrder []int `json:"completion_order"`
}

// Run executes the scenario on a fresh device with the given
// configuration.
func Run(config gpu.Config, s Scenario) (Result, error) {
	result := Result{Name: s.Name}

	dev, err := gpu.NewDevice(config)
	if err != nil {
		return result, err
	}

	if err := dev.LoadProgram(s.Program); err != nil {
		return result, err
	}
	if len(s.Data) > 0 {
		if err := dev.LoadData(0, s.Data); err != nil {
			return result, err
		}
	}
	if err := dev.WriteDeviceControl(s.Threads); err != nil {
		return result, err
	}
	if err := dev.Start(); err != nil {
		return result, err
	}

	maxCycles := s.MaxCycles
	if maxCycles == 0 {
		maxCycles = 1_000_000
	}

	cycles, err := dev.Run(s.MemInterval, maxCycles)
	if err != nil {
		return result, err
	}

	result.Cycles = cycles
	for _, c := range dev.Cores() {
		stats := c.Stats()
		result.Instructions += stats.Instructions
		result.StallCycles += stats.StallCycles
	}
	result.Blocks = len(dev.Dispatches())
	for _, e := range dev.Dispatches() {
		result.DispatchOrder = append(result.DispatchOrder, e.BlockID)
	}
	for _, e := range dev.Completions() {
		result.CompletionOrder = append(result.CompletionOrder, e.BlockID)
	}
	return result, nil
}

// PrintResults writes a fixed-width results table.
func PrintResults(w io.Writer, results []Result) {
	fmt.Fprintf(w, "%-28s %10s %12s %10s %8s\n",
		"Scenario", "Cycles", "Instructions", "Stalls", "Blocks")
	for _, r := range results {
		fmt.Fprintf(w, "%-28s %10d %12d %10d %8d\n",
			r.Name, r.Cycles, r.Instructions, r.StallCycles, r.Blocks)
	}
}
