package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tgsim/emu"
	"github.com/sarchlab/tgsim/insts"
)

var _ = Describe("BlockEmulator", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory()
	})

	It("should run an arithmetic kernel on every lane", func() {
		// R0 = blockIdx*blockDim + threadIdx; mem[R0] = R0 + 10
		program := []insts.Word{
			insts.EncodeMUL(0, insts.RegBlockIdx, insts.RegBlockDim),
			insts.EncodeADD(0, 0, insts.RegThreadIdx),
			insts.EncodeCONST(1, 10),
			insts.EncodeADD(1, 0, 1),
			insts.EncodeSTR(0, 1),
			insts.EncodeRET(),
		}

		e := emu.NewBlockEmulator(program, memory, 1, 4)
		Expect(e.Run()).To(Succeed())

		Expect(e.Retired()).To(BeTrue())
		// Block 1, lanes 0..3 -> global ids 4..7.
		Expect(memory.Dump(4, 4)).To(Equal([]uint8{14, 15, 16, 17}))
	})

	It("should load what another instruction stored", func() {
		memory.Write(5, 123)

		program := []insts.Word{
			insts.EncodeCONST(1, 5),
			insts.EncodeLDR(2, 1),
			insts.EncodeCONST(3, 6),
			insts.EncodeSTR(3, 2),
			insts.EncodeRET(),
		}

		e := emu.NewBlockEmulator(program, memory, 0, 1)
		Expect(e.Run()).To(Succeed())

		Expect(memory.Read(6)).To(Equal(uint8(123)))
	})

	It("should loop with CMP and BRn", func() {
		// Sum 1..5 into R2 using a counted loop.
		program := []insts.Word{
			insts.EncodeCONST(0, 0), // i
			insts.EncodeCONST(1, 1),
			insts.EncodeCONST(2, 0), // sum
			insts.EncodeCONST(3, 5), // bound
			// loop (PC=4):
			insts.EncodeADD(0, 0, 1),
			insts.EncodeADD(2, 2, 0),
			insts.EncodeCMP(0, 3),
			insts.EncodeBR(insts.CondN, 4),
			insts.EncodeCONST(4, 20),
			insts.EncodeSTR(4, 2),
			insts.EncodeRET(),
		}

		e := emu.NewBlockEmulator(program, memory, 0, 1)
		Expect(e.Run()).To(Succeed())

		Expect(memory.Read(20)).To(Equal(uint8(15)))
	})

	It("should let lanes diverge on a per-lane branch", func() {
		// Lanes with threadIdx > 0 skip the store at PC 4.
		program := []insts.Word{
			insts.EncodeCONST(1, 0),
			insts.EncodeCMP(insts.RegThreadIdx, 1),
			insts.EncodeBR(insts.CondP, 6),
			insts.EncodeCONST(2, 30),
			insts.EncodeCONST(3, 1),
			insts.EncodeSTR(2, 3),
			insts.EncodeRET(),
		}

		e := emu.NewBlockEmulator(program, memory, 0, 4)
		Expect(e.Run()).To(Succeed())

		// Only lane 0 took the store path.
		Expect(memory.Read(30)).To(Equal(uint8(1)))
	})

	It("should keep excess lanes of a partial block retired", func() {
		program := []insts.Word{
			insts.EncodeCONST(1, 1),
			insts.EncodeADD(0, insts.RegThreadIdx, 1),
			insts.EncodeSTR(insts.RegThreadIdx, 0),
			insts.EncodeRET(),
		}

		e := emu.NewBlockEmulator(program, memory, 0, 4, emu.WithLiveLanes(2))
		Expect(e.Run()).To(Succeed())

		Expect(memory.Dump(0, 4)).To(Equal([]uint8{1, 2, 0, 0}))
	})

	It("should report a block that never retires", func() {
		program := []insts.Word{
			insts.EncodeCONST(0, 1),
			insts.EncodeCONST(1, 0),
			insts.EncodeCMP(0, 1),
			insts.EncodeBR(insts.CondP, 2),
			insts.EncodeRET(),
		}

		e := emu.NewBlockEmulator(program, memory, 0, 1, emu.WithMaxSteps(100))
		Expect(e.Run()).To(HaveOccurred())
	})

	It("should report a PC past the end of the program", func() {
		program := []insts.Word{
			insts.EncodeNOP(),
		}

		e := emu.NewBlockEmulator(program, memory, 0, 1, emu.WithMaxSteps(10))
		err := e.Run()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("past end of program"))
	})
})
