// Package main provides the tgsim command-line driver. It loads a
// program image, configures the device, runs it under a chosen
// memory-service cadence, and reports the event streams and counters.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/tgsim/gpu"
	"github.com/sarchlab/tgsim/loader"
	"github.com/sarchlab/tgsim/timing/cache"
)

var (
	threads     = flag.Int("threads", 4, "Total thread count for the run")
	dataPath    = flag.String("data", "", "Path to an initial data-memory image")
	configPath  = flag.String("config", "", "Path to a device configuration JSON file")
	memInterval = flag.Int("mem-interval", 1, "Service data memory every N cycles")
	maxCycles   = flag.Uint64("max-cycles", 1_000_000, "Abort if the run exceeds this many cycles")
	useCache    = flag.Bool("cache", false, "Enable the data cache")
	dumpLen     = flag.Int("dump", 0, "Dump the first N bytes of data memory after the run")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tgsim [options] <program.txt>\n\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(programPath string) error {
	prog, err := loader.Load(programPath)
	if err != nil {
		return err
	}

	config := gpu.DefaultConfig()
	if *configPath != "" {
		if config, err = gpu.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	var opts []gpu.DeviceOption
	if *useCache {
		opts = append(opts, gpu.WithDataCache(cache.DefaultConfig()))
	}

	dev, err := gpu.NewDevice(config, opts...)
	if err != nil {
		return err
	}

	if err := dev.LoadProgram(prog.Words); err != nil {
		return err
	}
	if *dataPath != "" {
		data, err := loader.LoadData(*dataPath)
		if err != nil {
			return err
		}
		if err := dev.LoadData(0, data); err != nil {
			return err
		}
	}

	if *verbose {
		fmt.Printf("Loaded: %s (%d words)\n", programPath, len(prog.Words))
		fmt.Printf("Cores: %d, threads/block: %d, channels: %d\n",
			config.NumCores, config.ThreadsPerBlock, config.Memory.Channels)
	}

	if err := dev.WriteDeviceControl(*threads); err != nil {
		return err
	}
	if err := dev.Start(); err != nil {
		return err
	}

	cycles, err := dev.Run(*memInterval, *maxCycles)
	if err != nil {
		return err
	}

	for _, e := range dev.Dispatches() {
		fmt.Printf("[cycle %5d] core %d START block %d\n", e.Cycle, e.CoreID, e.BlockID)
	}
	for _, e := range dev.Completions() {
		fmt.Printf("[cycle %5d] core %d DONE  block %d\n", e.Cycle, e.CoreID, e.BlockID)
	}
	fmt.Printf("Total cycles: %d\n", cycles)

	if *verbose {
		for _, c := range dev.Cores() {
			stats := c.Stats()
			fmt.Printf("core %d: %d blocks, %d instructions, %d/%d stall cycles\n",
				c.ID(), stats.BlocksRun, stats.Instructions, stats.StallCycles, stats.Cycles)
		}
		mstats := dev.MemController().Stats()
		fmt.Printf("memory: %d loads, %d stores, %d service passes\n",
			mstats.Loads, mstats.Stores, mstats.ServicePasses)
		if *useCache {
			fmt.Printf("cache: %d hits, %d misses\n", mstats.CacheHits, mstats.CacheMisses)
		}
	}

	if *dumpLen > 0 {
		dump := dev.Memory().Dump(0, *dumpLen)
		for i, b := range dump {
			if i%16 == 0 {
				fmt.Printf("\n%3d:", i)
			}
			fmt.Printf(" %3d", b)
		}
		fmt.Println()
	}

	return nil
}
