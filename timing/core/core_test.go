package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tgsim/emu"
	"github.com/sarchlab/tgsim/insts"
	"github.com/sarchlab/tgsim/timing/core"
	"github.com/sarchlab/tgsim/timing/mem"
)

var _ = Describe("Core", func() {
	var (
		program *mem.ProgramMemory
		backing *emu.Memory
		ctrl    *mem.Controller
		c       *core.Core
	)

	BeforeEach(func() {
		program = mem.NewProgramMemory()
		backing = emu.NewMemory()
		ctrl = mem.NewController(mem.DefaultConfig(), backing)
		c = core.NewCore(0, program, ctrl)
	})

	load := func(words []insts.Word) {
		program.Load(words)
	}

	It("should start idle with no block", func() {
		Expect(c.State()).To(Equal(core.StateIdle))
		Expect(c.BlockID()).To(Equal(-1))
		Expect(c.Tick()).To(Succeed())
		Expect(c.Stats().Cycles).To(BeZero())
	})

	It("should seed the lanes' special registers on assign", func() {
		load([]insts.Word{insts.EncodeRET()})

		c.Assign(3, 3, 4, 4)

		Expect(c.State()).To(Equal(core.StateRunning))
		Expect(c.BlockID()).To(Equal(3))
		lanes := c.Lanes()
		Expect(lanes).To(HaveLen(4))
		for i, l := range lanes {
			Expect(l.BlockIdx).To(Equal(uint8(3)))
			Expect(l.BlockDim).To(Equal(uint8(4)))
			Expect(l.ThreadIdx).To(Equal(uint8(i)))
			Expect(l.Active).To(BeTrue())
		}
	})

	It("should run an arithmetic block one instruction per cycle", func() {
		// CONST, 3 ADDs, RET: 5 cycles to DONE.
		load([]insts.Word{
			insts.EncodeCONST(1, 1),
			insts.EncodeADD(2, 2, 1),
			insts.EncodeADD(2, 2, 1),
			insts.EncodeADD(2, 2, 1),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 4, 4)

		for i := 0; i < 4; i++ {
			Expect(c.Tick()).To(Succeed())
			Expect(c.State()).To(Equal(core.StateRunning))
		}
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateDone))

		stats := c.Stats()
		Expect(stats.Cycles).To(Equal(uint64(5)))
		Expect(stats.Instructions).To(Equal(uint64(20)))
		Expect(stats.StallCycles).To(BeZero())
		Expect(stats.BlocksRun).To(Equal(uint64(1)))
	})

	It("should stall on a load until the memory is serviced", func() {
		backing.Write(9, 42)
		load([]insts.Word{
			insts.EncodeCONST(2, 9),
			insts.EncodeLDR(3, 2),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 1, 1)

		Expect(c.Tick()).To(Succeed()) // CONST
		Expect(c.Tick()).To(Succeed()) // LDR issues
		Expect(c.State()).To(Equal(core.StateStalled))

		// No service, no progress.
		Expect(c.Tick()).To(Succeed())
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateStalled))

		ctrl.Service()
		// Writeback and the next instruction share the resume tick.
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateDone))
		Expect(c.Lanes()[0].ReadReg(3)).To(Equal(uint8(42)))
		Expect(c.Stats().StallCycles).To(Equal(uint64(2)))
		Expect(c.Stats().Cycles).To(Equal(uint64(5)))
	})

	It("should resume only after every lane's load resolves", func() {
		// All four lanes load the same address, which the controller
		// serializes onto one channel at a time.
		load([]insts.Word{
			insts.EncodeCONST(2, 0),
			insts.EncodeLDR(3, 2),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 4, 4)

		Expect(c.Tick()).To(Succeed())
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateStalled))

		// Three passes resolve three of the four serialized loads.
		for i := 0; i < 3; i++ {
			ctrl.Service()
			Expect(c.Tick()).To(Succeed())
			Expect(c.State()).To(Equal(core.StateStalled))
		}

		ctrl.Service()
		// The fourth load has resolved: the block resumes, executes
		// RET on every lane, and retires.
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateDone))
	})

	It("should resolve lockstep loads to distinct addresses in one pass", func() {
		for i := uint8(0); i < 4; i++ {
			backing.Write(i, i+10)
		}
		// Each lane loads address threadIdx.
		load([]insts.Word{
			insts.EncodeLDR(3, insts.RegThreadIdx),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 4, 4)

		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateStalled))

		ctrl.Service()
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateDone))
		for i, l := range c.Lanes() {
			Expect(l.ReadReg(3)).To(Equal(uint8(i + 10)))
		}
	})

	It("should not stall on stores", func() {
		load([]insts.Word{
			insts.EncodeCONST(2, 5),
			insts.EncodeCONST(1, 7),
			insts.EncodeSTR(2, 1),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 1, 1)

		Expect(c.Tick()).To(Succeed())
		Expect(c.Tick()).To(Succeed())
		Expect(c.Tick()).To(Succeed()) // STR issues, no stall
		Expect(c.State()).To(Equal(core.StateRunning))
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateDone))

		Expect(ctrl.Drain(10)).To(Succeed())
		Expect(backing.Read(5)).To(Equal(uint8(7)))
	})

	It("should keep excess lanes of a partial block retired", func() {
		load([]insts.Word{
			insts.EncodeCONST(1, 1),
			insts.EncodeSTR(insts.RegThreadIdx, 1),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 4, 2)

		for c.State() != core.StateDone {
			Expect(c.Tick()).To(Succeed())
		}
		Expect(ctrl.Drain(10)).To(Succeed())

		Expect(backing.Dump(0, 4)).To(Equal([]uint8{1, 1, 0, 0}))
	})

	It("should let lanes diverge and retire independently", func() {
		// Lanes with threadIdx > 0 retire immediately; lane 0 does an
		// extra add first.
		load([]insts.Word{
			insts.EncodeCONST(1, 0),
			insts.EncodeCMP(insts.RegThreadIdx, 1),
			insts.EncodeBR(insts.CondP, 5),
			insts.EncodeADD(1, 1, 1),
			insts.EncodeNOP(),
			insts.EncodeRET(),
		})
		c.Assign(0, 0, 4, 4)

		for c.State() != core.StateDone {
			Expect(c.Tick()).To(Succeed())
		}
		Expect(c.Stats().BlocksRun).To(Equal(uint64(1)))
	})

	It("should return to idle on release", func() {
		load([]insts.Word{insts.EncodeRET()})
		c.Assign(0, 0, 1, 1)
		Expect(c.Tick()).To(Succeed())
		Expect(c.State()).To(Equal(core.StateDone))

		c.Release()

		Expect(c.State()).To(Equal(core.StateIdle))
		Expect(c.BlockID()).To(Equal(-1))
	})

	It("should panic when assigned while not idle", func() {
		load([]insts.Word{insts.EncodeRET()})
		c.Assign(0, 0, 1, 1)

		Expect(func() { c.Assign(1, 1, 1, 1) }).To(Panic())
	})

	It("should error on an unknown instruction", func() {
		load([]insts.Word{0b1010000000000000})
		c.Assign(0, 0, 1, 1)

		Expect(c.Tick()).To(HaveOccurred())
	})

	It("should error when the PC runs past the program", func() {
		load([]insts.Word{insts.EncodeNOP()})
		c.Assign(0, 0, 1, 1)

		Expect(c.Tick()).To(Succeed())
		Expect(c.Tick()).To(HaveOccurred())
	})
})
