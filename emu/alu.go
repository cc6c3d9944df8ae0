package emu

import "github.com/sarchlab/tgsim/insts"

// ALU implements the arithmetic operations for one lane.
// All arithmetic is 8-bit with wraparound.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// ADD performs Rd = Rs + Rt.
func (a *ALU) ADD(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)+a.regFile.ReadReg(rt))
}

// SUB performs Rd = Rs - Rt.
func (a *ALU) SUB(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)-a.regFile.ReadReg(rt))
}

// MUL performs Rd = Rs * Rt.
func (a *ALU) MUL(rd, rs, rt uint8) {
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)*a.regFile.ReadReg(rt))
}

// DIV performs Rd = Rs / Rt (integer). Division by zero writes 0 and
// leaves the flags untouched.
func (a *ALU) DIV(rd, rs, rt uint8) {
	divisor := a.regFile.ReadReg(rt)
	if divisor == 0 {
		a.regFile.WriteReg(rd, 0)
		return
	}
	a.regFile.WriteReg(rd, a.regFile.ReadReg(rs)/divisor)
}

// CMP sets the lane's NZP flags from the sign of Rs - Rt, treating the
// operands as signed 8-bit values.
func (a *ALU) CMP(rs, rt uint8) {
	diff := int8(a.regFile.ReadReg(rs)) - int8(a.regFile.ReadReg(rt))
	switch {
	case diff < 0:
		a.regFile.Flags = insts.CondN
	case diff == 0:
		a.regFile.Flags = insts.CondZ
	default:
		a.regFile.Flags = insts.CondP
	}
}

// Execute applies a decoded arithmetic or compare instruction.
// It panics on instructions outside the ALU's remit.
func (a *ALU) Execute(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpADD:
		a.ADD(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpSUB:
		a.SUB(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpMUL:
		a.MUL(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpDIV:
		a.DIV(inst.Rd, inst.Rs, inst.Rt)
	case insts.OpCMP:
		a.CMP(inst.Rs, inst.Rt)
	default:
		panic("alu: not an ALU instruction: " + inst.Op.String())
	}
}
