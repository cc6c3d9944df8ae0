package gpu

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tgsim/emu"
	"github.com/sarchlab/tgsim/insts"
	"github.com/sarchlab/tgsim/timing/cache"
	"github.com/sarchlab/tgsim/timing/core"
	"github.com/sarchlab/tgsim/timing/mem"
)

// Device is the accelerator top. The driver protocol follows the
// recovered testbenches:
//
//	dev.Reset()
//	dev.WriteDeviceControl(threads)
//	dev.Start()
//	for !dev.Done() {
//	    if cycle%k == 0 { dev.ServiceMemory() } // latency injection
//	    dev.Tick()
//	}
type Device struct {
	config Config

	program    *mem.ProgramMemory
	dataMem    *emu.Memory
	controller *mem.Controller
	dcache     *cache.Cache

	cores      []*core.Core
	dispatcher *Dispatcher

	threadCount int
	running     bool
	done        bool
	cycle       uint64
}

// DeviceOption is a functional option for the Device.
type DeviceOption func(*deviceBuild)

type deviceBuild struct {
	cacheConfig *cache.Config
	coreOpts    []core.Option
}

// WithDataCache attaches a data cache between the cores and the banked
// memory; load hits bypass the channel latency.
func WithDataCache(config cache.Config) DeviceOption {
	return func(b *deviceBuild) {
		b.cacheConfig = &config
	}
}

// WithRelativeBranches switches every core's decoder to PC-relative
// branch immediates.
func WithRelativeBranches() DeviceOption {
	return func(b *deviceBuild) {
		b.coreOpts = append(b.coreOpts,
			core.WithDecoder(insts.NewDecoder(insts.WithRelativeBranches())))
	}
}

// NewDevice builds a device from the configuration.
func NewDevice(config Config, opts ...DeviceOption) (*Device, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	build := &deviceBuild{}
	for _, opt := range opts {
		opt(build)
	}

	d := &Device{
		config:  config,
		program: mem.NewProgramMemory(),
		dataMem: emu.NewMemorySized(config.Memory.Size),
	}

	var ctrlOpts []mem.ControllerOption
	if build.cacheConfig != nil {
		d.dcache = cache.New(*build.cacheConfig, d.dataMem)
		ctrlOpts = append(ctrlOpts, mem.WithCache(d.dcache))
	}
	d.controller = mem.NewController(config.Memory, d.dataMem, ctrlOpts...)

	d.cores = make([]*core.Core, config.NumCores)
	for i := range d.cores {
		d.cores[i] = core.NewCore(i, d.program, d.controller, build.coreOpts...)
	}
	d.dispatcher = NewDispatcher(d.cores, config.ThreadsPerBlock)

	return d, nil
}

// Config returns the device configuration.
func (d *Device) Config() Config {
	return d.config
}

// LoadProgram writes the instruction words into program memory.
// The program is immutable once a run has started.
func (d *Device) LoadProgram(program []insts.Word) error {
	if d.running {
		return errors.New("gpu: program write during an active run")
	}
	d.program.Load(program)
	return nil
}

// LoadData writes an initial byte image into data memory at base.
func (d *Device) LoadData(base uint8, data []uint8) error {
	if d.running {
		return errors.New("gpu: data write during an active run")
	}
	d.dataMem.Load(base, data)
	return nil
}

// WriteDeviceControl sets the total thread count for the next run.
// Writes during an active run are rejected: already-dispatched block
// sizes are never altered retroactively.
func (d *Device) WriteDeviceControl(threads int) error {
	if d.running {
		return errors.New("gpu: device-control write during an active run")
	}
	if threads <= 0 || threads > MaxThreads {
		return errors.Errorf("gpu: thread count must be in 1..%d, got %d",
			MaxThreads, threads)
	}
	d.threadCount = threads
	return nil
}

// Start populates the dispatch queue from the current thread-count
// configuration; dispatch begins on the next Tick.
func (d *Device) Start() error {
	if d.running {
		return errors.New("gpu: start during an active run")
	}
	if d.threadCount == 0 {
		return errors.New("gpu: start with no thread count configured")
	}

	d.dispatcher.Reset()
	d.dispatcher.Populate(d.threadCount)
	d.cycle = 0
	d.done = false
	d.running = true
	return nil
}

// Reset returns every core to IDLE, discards pending blocks, queued
// memory requests, and recorded events, and clears the done latch.
// The control register and loaded memories survive, as in the
// hardware; callers typically rewrite the thread count anyway.
func (d *Device) Reset() {
	for _, c := range d.cores {
		c.Reset()
	}
	d.controller.Reset()
	if d.dcache != nil {
		d.dcache.Reset()
	}
	d.dispatcher.Reset()
	d.cycle = 0
	d.done = false
	d.running = false
}

// Tick advances the whole device by one cycle: one scheduling pass,
// then one tick of every core. Data-memory servicing is NOT part of
// Tick; the caller injects latency by choosing when to call
// ServiceMemory.
func (d *Device) Tick() error {
	if !d.running {
		return nil
	}

	d.dispatcher.Pass(d.cycle)

	for _, c := range d.cores {
		if err := c.Tick(); err != nil {
			return err
		}
	}

	d.cycle++

	if d.dispatcher.Done() {
		d.done = true
		d.running = false
	}
	return nil
}

// ServiceMemory runs one service pass over the data-memory channels.
func (d *Device) ServiceMemory() {
	d.controller.Service()
}

// Run drives the device until global completion, servicing data memory
// every memInterval cycles (1 services every cycle). It returns the
// cycle count at completion. maxCycles bounds the loop as a safety
// net; exceeding it is reported as an error.
func (d *Device) Run(memInterval int, maxCycles uint64) (uint64, error) {
	if memInterval <= 0 {
		memInterval = 1
	}

	for !d.done {
		if d.cycle >= maxCycles {
			return d.cycle, errors.Errorf("gpu: no global completion within %d cycles", maxCycles)
		}
		if d.cycle%uint64(memInterval) == 0 {
			d.ServiceMemory()
		}
		if err := d.Tick(); err != nil {
			return d.cycle, err
		}
	}

	// Flush trailing fire-and-forget stores so results are visible.
	if err := d.controller.Drain(int(maxCycles) + 1); err != nil {
		return d.cycle, err
	}
	return d.cycle, nil
}

// Done reports global completion. It stays asserted until the next
// Reset or Start.
func (d *Device) Done() bool {
	return d.done
}

// Cycle returns the current cycle count of the run.
func (d *Device) Cycle() uint64 {
	return d.cycle
}

// Dispatches returns the dispatch event stream of the current run.
func (d *Device) Dispatches() []Event {
	return d.dispatcher.Dispatches()
}

// Completions returns the completion event stream of the current run.
func (d *Device) Completions() []Event {
	return d.dispatcher.Completions()
}

// Cores returns the core pool, for statistics and inspection.
func (d *Device) Cores() []*core.Core {
	return d.cores
}

// Memory returns the data memory backing store.
func (d *Device) Memory() *emu.Memory {
	return d.dataMem
}

// MemController returns the banked memory controller.
func (d *Device) MemController() *mem.Controller {
	return d.controller
}

// DataCache returns the attached data cache, or nil.
func (d *Device) DataCache() *cache.Cache {
	return d.dcache
}
