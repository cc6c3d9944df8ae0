// Package insts provides instruction definitions and decoding for the
// tgsim accelerator ISA.
//
// Instructions are fixed-width 16-bit words. The opcode occupies the
// most-significant nibble; the remaining 12 bits carry up to three
// 4-bit register fields, or a register plus an 8-bit immediate.
// Supported instructions:
//   - Arithmetic: ADD, SUB, MUL, DIV (Rd = Rs op Rt)
//   - CONST: load an 8-bit immediate into a register
//   - CMP: set the per-lane NZP flags from sign(Rs - Rt)
//   - BRnzp: conditional branch on the NZP flags
//   - LDR/STR: data-memory load and store through a register address
//   - NOP, RET
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x30F1) // ADD R0, R15, R1
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
package insts
