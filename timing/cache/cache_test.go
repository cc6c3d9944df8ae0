package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tgsim/emu"
	"github.com/sarchlab/tgsim/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		memory *emu.Memory
		c      *cache.Cache
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		// 2 sets, 2 ways, 8-byte lines.
		c = cache.New(cache.Config{
			Size:          32,
			Associativity: 2,
			BlockSize:     8,
		}, memory)
	})

	It("should miss on a cold lookup", func() {
		_, hit := c.Lookup(0)
		Expect(hit).To(BeFalse())

		stats := c.Stats()
		Expect(stats.Lookups).To(Equal(uint64(1)))
		Expect(stats.Misses).To(Equal(uint64(1)))
	})

	It("should hit the whole line after a fill", func() {
		for i := uint8(8); i < 16; i++ {
			memory.Write(i, i*2)
		}

		c.Fill(10)

		for i := uint8(8); i < 16; i++ {
			v, hit := c.Lookup(i)
			Expect(hit).To(BeTrue())
			Expect(v).To(Equal(i * 2))
		}
		Expect(c.Stats().Fills).To(Equal(uint64(1)))
	})

	It("should write through only to present lines", func() {
		Expect(c.WriteThrough(0, 9)).To(BeFalse())

		c.Fill(0)
		Expect(c.WriteThrough(0, 9)).To(BeTrue())

		v, hit := c.Lookup(0)
		Expect(hit).To(BeTrue())
		Expect(v).To(Equal(uint8(9)))
	})

	It("should evict the LRU way of a full set", func() {
		// Lines 0, 16, 32 all map to set 0 in a 2-set/8-byte geometry.
		c.Fill(0)
		c.Fill(16)
		_, _ = c.Lookup(0) // make line 16 the LRU victim
		c.Fill(32)

		_, hit := c.Lookup(0)
		Expect(hit).To(BeTrue())
		_, hit = c.Lookup(16)
		Expect(hit).To(BeFalse())
		_, hit = c.Lookup(32)
		Expect(hit).To(BeTrue())

		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
	})

	It("should forget everything on reset", func() {
		c.Fill(0)
		c.Reset()

		_, hit := c.Lookup(0)
		Expect(hit).To(BeFalse())
		Expect(c.Stats().Lookups).To(Equal(uint64(1)))
	})
})
