package emu

import (
	"github.com/pkg/errors"

	"github.com/sarchlab/tgsim/insts"
)

// Lane is one thread context of a block: a register file plus a
// retirement marker. A lane that has executed RET stays in the vector
// but is excluded from further lockstep steps.
type Lane struct {
	RegFile
	Active bool
}

// BlockEmulator executes one block's lanes in lockstep with immediate
// memory, ignoring all timing. It is the functional reference the
// timing model is validated against.
type BlockEmulator struct {
	program []insts.Word
	memory  *Memory
	decoder *insts.Decoder
	lanes   []*Lane

	stepCount uint64
	maxSteps  uint64
}

// BlockEmulatorOption is a functional option for the BlockEmulator.
type BlockEmulatorOption func(*BlockEmulator)

// WithDecoder sets a custom decoder (e.g. relative branch mode).
func WithDecoder(d *insts.Decoder) BlockEmulatorOption {
	return func(e *BlockEmulator) {
		e.decoder = d
	}
}

// WithMaxSteps bounds the number of lockstep steps Run will take.
// A value of 0 means the default bound.
func WithMaxSteps(max uint64) BlockEmulatorOption {
	return func(e *BlockEmulator) {
		e.maxSteps = max
	}
}

// WithLiveLanes limits the number of live lanes, for a partial final
// block. Lanes beyond n start retired but keep their thread index.
func WithLiveLanes(n int) BlockEmulatorOption {
	return func(e *BlockEmulator) {
		for i := n; i < len(e.lanes); i++ {
			e.lanes[i].Active = false
		}
	}
}

// NewBlockEmulator creates a functional emulator for one block.
// blockDim lanes are created, each seeded with the block's special
// register values.
func NewBlockEmulator(
	program []insts.Word,
	memory *Memory,
	blockIdx, blockDim uint8,
	opts ...BlockEmulatorOption,
) *BlockEmulator {
	e := &BlockEmulator{
		program:  program,
		memory:   memory,
		decoder:  insts.NewDecoder(),
		maxSteps: 10000,
	}

	e.lanes = make([]*Lane, blockDim)
	for i := range e.lanes {
		e.lanes[i] = &Lane{
			RegFile: RegFile{
				BlockIdx:  blockIdx,
				BlockDim:  blockDim,
				ThreadIdx: uint8(i),
			},
			Active: true,
		}
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Lanes returns the lane vector.
func (e *BlockEmulator) Lanes() []*Lane {
	return e.lanes
}

// Retired returns true once every lane has executed RET.
func (e *BlockEmulator) Retired() bool {
	for _, lane := range e.lanes {
		if lane.Active {
			return false
		}
	}
	return true
}

// StepCount returns the number of lockstep steps taken so far.
func (e *BlockEmulator) StepCount() uint64 {
	return e.stepCount
}

// Step executes one instruction on every active lane.
func (e *BlockEmulator) Step() error {
	for _, lane := range e.lanes {
		if !lane.Active {
			continue
		}
		if err := e.stepLane(lane); err != nil {
			return err
		}
	}
	e.stepCount++
	return nil
}

func (e *BlockEmulator) stepLane(lane *Lane) error {
	if int(lane.PC) >= len(e.program) {
		return errors.Errorf("lane %d: PC %d past end of program (%d words)",
			lane.ThreadIdx, lane.PC, len(e.program))
	}

	inst := e.decoder.Decode(e.program[lane.PC])

	switch inst.Op {
	case insts.OpNOP:
		lane.PC++
	case insts.OpADD, insts.OpSUB, insts.OpMUL, insts.OpDIV, insts.OpCMP:
		NewALU(&lane.RegFile).Execute(inst)
		lane.PC++
	case insts.OpCONST:
		lane.WriteReg(inst.Rd, inst.Imm)
		lane.PC++
	case insts.OpLDR:
		lane.WriteReg(inst.Rd, e.memory.Read(lane.ReadReg(inst.Rs)))
		lane.PC++
	case insts.OpSTR:
		e.memory.Write(lane.ReadReg(inst.Rs), lane.ReadReg(inst.Rt))
		lane.PC++
	case insts.OpBR:
		if inst.Mask&lane.Flags != 0 {
			lane.PC = e.decoder.BranchTarget(inst, lane.PC)
		} else {
			lane.PC++
		}
	case insts.OpRET:
		lane.Active = false
	default:
		return errors.Errorf("lane %d: unknown instruction 0x%04X at PC %d",
			lane.ThreadIdx, inst.Raw, lane.PC)
	}

	return nil
}

// Run steps the block until every lane retires.
func (e *BlockEmulator) Run() error {
	for !e.Retired() {
		if e.stepCount >= e.maxSteps {
			return errors.Errorf("block %d did not retire within %d steps",
				e.lanes[0].BlockIdx, e.maxSteps)
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}
