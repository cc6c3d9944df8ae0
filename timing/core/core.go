// Package core provides the cycle-level SIMT core model. One core
// executes one dispatched block's lanes in lockstep, one instruction
// per lane per cycle, stalling as a whole on outstanding loads.
package core

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sarchlab/tgsim/emu"
	"github.com/sarchlab/tgsim/insts"
	"github.com/sarchlab/tgsim/timing/mem"
)

// State is the core's scheduling state.
type State uint8

// Core states.
const (
	StateIdle State = iota
	StateRunning
	StateStalled
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStalled:
		return "STALLED"
	case StateDone:
		return "DONE"
	}
	return "INVALID"
}

// Statistics holds per-core counters.
type Statistics struct {
	// Cycles counts ticks spent RUNNING or STALLED.
	Cycles uint64
	// Instructions is the number of lane-instructions executed.
	Instructions uint64
	// StallCycles counts ticks spent STALLED.
	StallCycles uint64
	// LoadsIssued and StoresIssued count memory requests.
	LoadsIssued  uint64
	StoresIssued uint64
	// BlocksRun is the number of blocks retired on this core.
	BlocksRun uint64
}

// lane is one thread context plus its outstanding load, if any.
type lane struct {
	emu.Lane
	pending    *mem.Request
	pendingDst uint8
}

// Core is one physical execution unit.
type Core struct {
	id      int
	decoder *insts.Decoder
	program *mem.ProgramMemory
	memory  *mem.Controller

	state   State
	blockID int
	lanes   []*lane

	stats Statistics
}

// Option is a functional option for the Core.
type Option func(*Core)

// WithDecoder sets a custom decoder (e.g. relative branch mode).
func WithDecoder(d *insts.Decoder) Option {
	return func(c *Core) {
		c.decoder = d
	}
}

// NewCore creates a core reading instructions from program and issuing
// data requests to memory.
func NewCore(id int, program *mem.ProgramMemory, memory *mem.Controller, opts ...Option) *Core {
	c := &Core{
		id:      id,
		decoder: insts.NewDecoder(),
		program: program,
		memory:  memory,
		state:   StateIdle,
		blockID: -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the core id.
func (c *Core) ID() int {
	return c.id
}

// State returns the core's scheduling state.
func (c *Core) State() State {
	return c.state
}

// BlockID returns the id of the block currently on the core, or -1.
func (c *Core) BlockID() int {
	return c.blockID
}

// Stats returns the core's counters.
func (c *Core) Stats() Statistics {
	return c.stats
}

// Lanes returns the lane register files, for inspection in tests.
func (c *Core) Lanes() []*emu.Lane {
	out := make([]*emu.Lane, len(c.lanes))
	for i, l := range c.lanes {
		out[i] = &l.Lane
	}
	return out
}

// Assign places a block on an idle core. blockDim lanes are created;
// lanes at index live and beyond start retired (partial final block).
// Assigning to a non-idle core is an invariant violation and panics.
func (c *Core) Assign(blockID int, blockIdx, blockDim, live uint8) {
	if c.state != StateIdle {
		panic(fmt.Sprintf("core %d: assign block %d while %s", c.id, blockID, c.state))
	}
	if live == 0 || live > blockDim {
		panic(fmt.Sprintf("core %d: assign block %d with %d/%d live lanes",
			c.id, blockID, live, blockDim))
	}

	c.blockID = blockID
	c.lanes = make([]*lane, blockDim)
	for i := range c.lanes {
		c.lanes[i] = &lane{
			Lane: emu.Lane{
				RegFile: emu.RegFile{
					BlockIdx:  blockIdx,
					BlockDim:  blockDim,
					ThreadIdx: uint8(i),
				},
				Active: uint8(i) < live,
			},
		}
	}
	c.state = StateRunning
}

// Release acknowledges a DONE core and returns it to the idle pool.
// Called by the dispatcher once the completion is recorded.
func (c *Core) Release() {
	if c.state != StateDone {
		panic(fmt.Sprintf("core %d: release while %s", c.id, c.state))
	}
	c.blockID = -1
	c.lanes = nil
	c.state = StateIdle
}

// Reset forces the core to IDLE, dropping any block.
func (c *Core) Reset() {
	c.blockID = -1
	c.lanes = nil
	c.state = StateIdle
	c.stats = Statistics{}
}

// Tick advances the core by one cycle. IDLE and DONE cores do nothing;
// a RUNNING core executes one instruction on every active lane; a
// STALLED core waits until every outstanding load has resolved, then
// writes back and continues in the same tick (lockstep resume).
func (c *Core) Tick() error {
	switch c.state {
	case StateIdle, StateDone:
		return nil
	case StateStalled:
		c.stats.Cycles++
		if !c.allResolved() {
			c.stats.StallCycles++
			return nil
		}
		c.writeback()
		c.state = StateRunning
		return c.tickRunning()
	case StateRunning:
		c.stats.Cycles++
		return c.tickRunning()
	}
	panic(fmt.Sprintf("core %d: tick in invalid state %d", c.id, c.state))
}

func (c *Core) allResolved() bool {
	for _, l := range c.lanes {
		if l.pending != nil && !l.pending.Done() {
			return false
		}
	}
	return true
}

// writeback delivers resolved load data and advances the issuing
// lanes' PCs together.
func (c *Core) writeback() {
	for _, l := range c.lanes {
		if l.pending == nil {
			continue
		}
		l.WriteReg(l.pendingDst, l.pending.Data())
		l.PC++
		l.pending = nil
	}
}

func (c *Core) tickRunning() error {
	stall := false

	for i, l := range c.lanes {
		if !l.Active {
			continue
		}

		if int(l.PC) >= c.program.Len() {
			return errors.Errorf("core %d lane %d: PC %d past end of program (%d words)",
				c.id, i, l.PC, c.program.Len())
		}

		inst := c.decoder.Decode(c.program.Read(l.PC))
		c.stats.Instructions++

		switch inst.Op {
		case insts.OpNOP:
			l.PC++
		case insts.OpADD, insts.OpSUB, insts.OpMUL, insts.OpDIV, insts.OpCMP:
			emu.NewALU(&l.RegFile).Execute(inst)
			l.PC++
		case insts.OpCONST:
			l.WriteReg(inst.Rd, inst.Imm)
			l.PC++
		case insts.OpBR:
			if inst.Mask&l.Flags != 0 {
				l.PC = c.decoder.BranchTarget(inst, l.PC)
			} else {
				l.PC++
			}
		case insts.OpLDR:
			c.stats.LoadsIssued++
			req := c.memory.IssueLoad(l.ReadReg(inst.Rs), c.id, i)
			if req.Done() {
				l.WriteReg(inst.Rd, req.Data())
				l.PC++
			} else {
				l.pending = req
				l.pendingDst = inst.Rd
				stall = true
			}
		case insts.OpSTR:
			c.stats.StoresIssued++
			c.memory.IssueStore(l.ReadReg(inst.Rs), l.ReadReg(inst.Rt), c.id, i)
			l.PC++
		case insts.OpRET:
			l.Active = false
		default:
			return errors.Errorf("core %d lane %d: unknown instruction 0x%04X at PC %d",
				c.id, i, inst.Raw, l.PC)
		}
	}

	if stall {
		c.state = StateStalled
		return nil
	}

	if c.retired() {
		c.stats.BlocksRun++
		c.state = StateDone
	}
	return nil
}

func (c *Core) retired() bool {
	for _, l := range c.lanes {
		if l.Active {
			return false
		}
	}
	return true
}
