package insts

// Encoders build instruction words for tests, kernels, and tooling.
// Register fields are masked to 4 bits; callers pass indices 0..15.

// EncodeALU encodes an arithmetic instruction: Rd = Rs op Rt.
func EncodeALU(op Op, rd, rs, rt uint8) Word {
	return Word(op)<<12 | Word(rd&0xF)<<8 | Word(rs&0xF)<<4 | Word(rt&0xF)
}

// EncodeADD encodes ADD Rd, Rs, Rt.
func EncodeADD(rd, rs, rt uint8) Word { return EncodeALU(OpADD, rd, rs, rt) }

// EncodeSUB encodes SUB Rd, Rs, Rt.
func EncodeSUB(rd, rs, rt uint8) Word { return EncodeALU(OpSUB, rd, rs, rt) }

// EncodeMUL encodes MUL Rd, Rs, Rt.
func EncodeMUL(rd, rs, rt uint8) Word { return EncodeALU(OpMUL, rd, rs, rt) }

// EncodeDIV encodes DIV Rd, Rs, Rt.
func EncodeDIV(rd, rs, rt uint8) Word { return EncodeALU(OpDIV, rd, rs, rt) }

// EncodeCONST encodes CONST Rd, #imm.
func EncodeCONST(rd, imm uint8) Word {
	return Word(OpCONST)<<12 | Word(rd&0xF)<<8 | Word(imm)
}

// EncodeCMP encodes CMP Rs, Rt.
func EncodeCMP(rs, rt uint8) Word {
	return Word(OpCMP)<<12 | Word(rs&0xF)<<4 | Word(rt&0xF)
}

// EncodeBR encodes BRnzp with the given condition mask and immediate.
// The immediate is an absolute target address under the default
// decoder, or a signed offset under WithRelativeBranches.
func EncodeBR(mask CondMask, imm uint8) Word {
	return Word(OpBR)<<12 | Word(mask&0b111)<<9 | Word(imm)
}

// EncodeLDR encodes LDR Rd, Rs (Rd = mem[Rs]).
func EncodeLDR(rd, rs uint8) Word {
	return Word(OpLDR)<<12 | Word(rd&0xF)<<8 | Word(rs&0xF)<<4
}

// EncodeSTR encodes STR Rs, Rt (mem[Rs] = Rt).
func EncodeSTR(rs, rt uint8) Word {
	return Word(OpSTR)<<12 | Word(rs&0xF)<<4 | Word(rt&0xF)
}

// EncodeNOP encodes NOP.
func EncodeNOP() Word { return Word(OpNOP) << 12 }

// EncodeRET encodes RET.
func EncodeRET() Word { return Word(OpRET) << 12 }
