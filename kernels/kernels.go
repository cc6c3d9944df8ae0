// Package kernels provides canned programs for the tgsim device,
// built with the insts encoders. The matmul kernel is the one the
// hardware testbenches ran; the split kernel is their latency-hiding
// scenario: block 0 waits on memory while block 1 does arithmetic.
package kernels

import "github.com/sarchlab/tgsim/insts"

// globalID emits R0 = %blockIdx * %blockDim + %threadIdx.
func globalID() []insts.Word {
	return []insts.Word{
		insts.EncodeMUL(0, insts.RegBlockIdx, insts.RegBlockDim),
		insts.EncodeADD(0, 0, insts.RegThreadIdx),
	}
}

// MatMul returns an n x n matrix multiply kernel, one output element
// per thread. A starts at baseA, B at baseB; C = A*B is written at
// baseC. Launch with n*n threads.
func MatMul(n, baseA, baseB, baseC uint8) []insts.Word {
	program := globalID()
	program = append(program,
		insts.EncodeCONST(1, 1),
		insts.EncodeCONST(2, n),
		insts.EncodeCONST(3, baseA),
		insts.EncodeCONST(4, baseB),
		insts.EncodeCONST(5, baseC),
		insts.EncodeDIV(6, 0, 2), // row = id / n
		insts.EncodeMUL(7, 6, 2),
		insts.EncodeSUB(7, 0, 7), // col = id % n
		insts.EncodeCONST(8, 0),  // acc
		insts.EncodeCONST(9, 0),  // k
	)

	loop := uint8(len(program))
	program = append(program,
		insts.EncodeMUL(10, 6, 2),
		insts.EncodeADD(10, 10, 9),
		insts.EncodeADD(10, 10, 3),
		insts.EncodeLDR(10, 10), // A[row*n + k]
		insts.EncodeMUL(11, 9, 2),
		insts.EncodeADD(11, 11, 7),
		insts.EncodeADD(11, 11, 4),
		insts.EncodeLDR(11, 11), // B[k*n + col]
		insts.EncodeMUL(12, 10, 11),
		insts.EncodeADD(8, 8, 12),
		insts.EncodeADD(9, 9, 1),
		insts.EncodeCMP(9, 2),
		insts.EncodeBR(insts.CondN, loop),
		insts.EncodeADD(9, 5, 0),
		insts.EncodeSTR(9, 8),
		insts.EncodeRET(),
	)
	return program
}

// MatAdd returns an element-wise add kernel: C[i] = A[i] + B[i] for
// each thread's global id i.
func MatAdd(baseA, baseB, baseC uint8) []insts.Word {
	program := globalID()
	return append(program,
		insts.EncodeCONST(1, baseA),
		insts.EncodeADD(1, 1, 0),
		insts.EncodeLDR(2, 1),
		insts.EncodeCONST(3, baseB),
		insts.EncodeADD(3, 3, 0),
		insts.EncodeLDR(4, 3),
		insts.EncodeADD(5, 2, 4),
		insts.EncodeCONST(6, baseC),
		insts.EncodeADD(6, 6, 0),
		insts.EncodeSTR(6, 5),
		insts.EncodeRET(),
	)
}

// Split returns the latency-hiding kernel: block 0 issues a load of
// loadAddr and retires; every other block runs mathOps dependent adds
// and retires. Launch with 2*TPB threads on 2 cores to overlap block
// 0's stall with block 1's arithmetic.
func Split(loadAddr uint8, mathOps int) []insts.Word {
	// R0 = blockIdx * blockDim: zero for block 0 on every lane, so the
	// whole block picks one path.
	program := []insts.Word{
		insts.EncodeMUL(0, insts.RegBlockIdx, insts.RegBlockDim),
		insts.EncodeCONST(1, 0),
		insts.EncodeCMP(0, 1),
	}

	// Placeholder target, patched once the math path address is known.
	branchAt := len(program)
	program = append(program,
		insts.EncodeBR(insts.CondP, 0),
		insts.EncodeCONST(2, loadAddr),
		insts.EncodeLDR(3, 2),
		insts.EncodeRET(),
	)

	mathPath := uint8(len(program))
	program[branchAt] = insts.EncodeBR(insts.CondP, mathPath)
	for i := 0; i < mathOps; i++ {
		program = append(program, insts.EncodeADD(1, 1, 1))
	}
	return append(program, insts.EncodeRET())
}

// ArithmeticOnly returns a kernel of n dependent adds and a RET, used
// as a compute-bound baseline.
func ArithmeticOnly(n int) []insts.Word {
	program := []insts.Word{insts.EncodeCONST(1, 1)}
	for i := 0; i < n; i++ {
		program = append(program, insts.EncodeADD(2, 2, 1))
	}
	return append(program, insts.EncodeRET())
}

// LoadOnly returns a kernel that loads loadAddr once and retires, used
// as a memory-bound baseline.
func LoadOnly(loadAddr uint8) []insts.Word {
	return []insts.Word{
		insts.EncodeCONST(2, loadAddr),
		insts.EncodeLDR(3, 2),
		insts.EncodeRET(),
	}
}
