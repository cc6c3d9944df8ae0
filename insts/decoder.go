package insts

// Word is one 16-bit instruction word.
type Word = uint16

// Op represents an opcode.
type Op uint8

// Opcodes, by their encoding nibble.
const (
	OpNOP   Op = 0b0000
	OpBR    Op = 0b0001
	OpCMP   Op = 0b0010
	OpADD   Op = 0b0011
	OpSUB   Op = 0b0100
	OpMUL   Op = 0b0101
	OpDIV   Op = 0b0110
	OpLDR   Op = 0b0111
	OpSTR   Op = 0b1000
	OpCONST Op = 0b1001
	OpRET   Op = 0b1111

	// OpUnknown marks an unassigned opcode nibble.
	OpUnknown Op = 0xFF
)

func (o Op) String() string {
	switch o {
	case OpNOP:
		return "NOP"
	case OpBR:
		return "BRnzp"
	case OpCMP:
		return "CMP"
	case OpADD:
		return "ADD"
	case OpSUB:
		return "SUB"
	case OpMUL:
		return "MUL"
	case OpDIV:
		return "DIV"
	case OpLDR:
		return "LDR"
	case OpSTR:
		return "STR"
	case OpCONST:
		return "CONST"
	case OpRET:
		return "RET"
	}
	return "UNKNOWN"
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatALU            // Rd [11:8], Rs [7:4], Rt [3:0]
	FormatImm            // Rd [11:8], Imm8 [7:0]
	FormatBranch         // NZP mask [11:9], Imm8 [7:0]
	FormatMem            // LDR: Rd [11:8], Rs [7:4]; STR: Rs [7:4], Rt [3:0]
	FormatSystem         // NOP, RET
)

// CondMask is the 3-bit NZP condition mask carried by BRnzp.
type CondMask uint8

// Condition mask bits. A branch is taken when mask AND laneFlags != 0.
const (
	CondP CondMask = 0b001 // positive
	CondZ CondMask = 0b010 // zero
	CondN CondMask = 0b100 // negative
)

// Register indices. Registers 0..12 are general purpose; 13..15 read as
// the per-lane special values and ignore writes.
const (
	NumGPRs = 13
	NumRegs = 16

	RegBlockIdx  uint8 = 13
	RegBlockDim  uint8 = 14
	RegThreadIdx uint8 = 15
)

// Instruction represents a decoded instruction word.
type Instruction struct {
	Op     Op
	Format Format

	Rd uint8 // destination register
	Rs uint8 // first source register (address register for LDR/STR)
	Rt uint8 // second source register (value register for STR)

	Imm  uint8    // 8-bit immediate (CONST, BRnzp)
	Mask CondMask // NZP mask (BRnzp)

	Raw Word
}

// Decoder decodes 16-bit instruction words.
//
// The branch target mode is configurable: the recovered programs use
// the 8-bit immediate as an absolute target address, which is the
// default; WithRelativeBranches switches to a signed PC-relative
// offset for toolchains that emit that form.
type Decoder struct {
	relativeBranch bool
}

// DecoderOption is a functional option for configuring the Decoder.
type DecoderOption func(*Decoder)

// WithRelativeBranches makes BRnzp immediates signed PC-relative
// offsets instead of absolute target addresses.
func WithRelativeBranches() DecoderOption {
	return func(d *Decoder) {
		d.relativeBranch = true
	}
}

// NewDecoder creates a new instruction decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode decodes a 16-bit instruction word.
func (d *Decoder) Decode(word Word) *Instruction {
	inst := &Instruction{
		Op:  Op(word >> 12),
		Raw: word,
	}

	switch inst.Op {
	case OpADD, OpSUB, OpMUL, OpDIV:
		inst.Format = FormatALU
		inst.Rd = uint8(word>>8) & 0xF
		inst.Rs = uint8(word>>4) & 0xF
		inst.Rt = uint8(word) & 0xF
	case OpCONST:
		inst.Format = FormatImm
		inst.Rd = uint8(word>>8) & 0xF
		inst.Imm = uint8(word)
	case OpBR:
		inst.Format = FormatBranch
		inst.Mask = CondMask(word>>9) & 0b111
		inst.Imm = uint8(word)
	case OpCMP:
		inst.Format = FormatALU
		inst.Rs = uint8(word>>4) & 0xF
		inst.Rt = uint8(word) & 0xF
	case OpLDR:
		inst.Format = FormatMem
		inst.Rd = uint8(word>>8) & 0xF
		inst.Rs = uint8(word>>4) & 0xF
	case OpSTR:
		inst.Format = FormatMem
		inst.Rs = uint8(word>>4) & 0xF
		inst.Rt = uint8(word) & 0xF
	case OpNOP, OpRET:
		inst.Format = FormatSystem
	default:
		inst.Op = OpUnknown
		inst.Format = FormatUnknown
	}

	return inst
}

// BranchTarget computes the next PC for a taken branch at pc.
func (d *Decoder) BranchTarget(inst *Instruction, pc uint8) uint8 {
	if d.relativeBranch {
		return pc + uint8(int8(inst.Imm))
	}
	return inst.Imm
}
