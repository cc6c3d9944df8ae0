// Package emu provides the functional (untimed) model of the tgsim
// accelerator: per-lane register files, the ALU, flat data memory, and
// a lockstep block emulator used to validate kernels.
package emu

import "github.com/sarchlab/tgsim/insts"

// RegFile represents one lane's register file.
// It contains 13 general-purpose 8-bit registers (R0-R12), the lane's
// program counter, and the NZP condition flags. Register indices 13-15
// read as the lane's special values (%blockIdx, %blockDim, %threadIdx)
// and ignore writes.
type RegFile struct {
	// R holds general-purpose registers R0-R12.
	R [insts.NumGPRs]uint8

	// PC is the lane's program counter.
	PC uint8

	// Flags holds the NZP condition flags set by CMP.
	Flags insts.CondMask

	// Special register values, fixed at block dispatch.
	BlockIdx  uint8
	BlockDim  uint8
	ThreadIdx uint8
}

// ReadReg reads a register value. Indices 13-15 return the lane's
// special values.
func (r *RegFile) ReadReg(reg uint8) uint8 {
	switch reg {
	case insts.RegBlockIdx:
		return r.BlockIdx
	case insts.RegBlockDim:
		return r.BlockDim
	case insts.RegThreadIdx:
		return r.ThreadIdx
	}
	return r.R[reg]
}

// WriteReg writes a register value. Writes to indices 13-15 are
// silently dropped, matching the read-only special registers.
func (r *RegFile) WriteReg(reg uint8, value uint8) {
	if reg >= insts.NumGPRs {
		return
	}
	r.R[reg] = value
}
