package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andreipoe/cachesim/timing/cache"
	"github.com/andreipoe/cachesim/timing/clock"
)

var _ = Describe("Geometry", func() {
	It("rejects a non-power-of-two size", func() {
		_, err := cache.NewGeometry(100, 64, 1)
		Expect(err).To(MatchError(cache.ErrInvalidGeometry))
	})

	It("rejects a line size that doesn't divide size", func() {
		_, err := cache.NewGeometry(1024, 100, 1)
		Expect(err).To(MatchError(cache.ErrInvalidGeometry))
	})

	It("rejects a set size that doesn't divide size/line_size", func() {
		_, err := cache.NewGeometry(1024, 64, 3)
		Expect(err).To(MatchError(cache.ErrInvalidGeometry))
	})

	It("accepts a typical 32KiB/64B/4-way geometry", func() {
		_, err := cache.NewGeometry(32*1024, 64, 4)
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("round-trips every address",
		func(size, line, set uint64, addr uint64) {
			g, err := cache.NewGeometry(size, line, set)
			Expect(err).NotTo(HaveOccurred())

			a := g.Decode(addr)
			Expect(g.Reconstruct(a)).To(Equal(addr))
		},
		Entry("small addr, small geometry", uint64(1024), uint64(64), uint64(1), uint64(0)),
		Entry("large addr, small geometry", uint64(1024), uint64(64), uint64(1), uint64(0xFFFFFFFFFFFFFFFF)),
		Entry("mid addr, set-associative geometry", uint64(32*1024), uint64(64), uint64(4), uint64(0x1000)),
		Entry("odd addr, set-associative geometry", uint64(32*1024), uint64(64), uint64(4), uint64(0xDEADBEEF)),
	)
})

var _ = Describe("InfiniteCache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		geom, err := cache.InfiniteGeometry(64)
		Expect(err).NotTo(HaveOccurred())
		c, err = cache.New(cache.Infinite, geom, clock.New())
		Expect(err).NotTo(HaveOccurred())
	})

	It("misses on first touch and hits on second", func() {
		ev1 := c.Touch(0x1000, 8)
		Expect(ev1.Hit()).To(BeFalse())

		ev2 := c.Touch(0x1000, 8)
		Expect(ev2.Hit()).To(BeTrue())
	})

	It("never evicts", func() {
		for i := uint64(0); i < 1000; i++ {
			c.Touch(i*64, 8)
		}
		Expect(c.Evictions()).To(Equal(uint64(0)))
	})

	It("rejects a lifetime histogram request", func() {
		_, err := c.ResidentLifetimes()
		Expect(err).To(MatchError(cache.ErrUnsupportedOperation))
	})
})

var _ = Describe("DirectMappedCache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		geom, err := cache.NewGeometry(32*1024, 64, 1)
		Expect(err).NotTo(HaveOccurred())
		c, err = cache.New(cache.DirectMapped, geom, clock.New())
		Expect(err).NotTo(HaveOccurred())
	})

	It("misses on first touch of any address", func() {
		Expect(c.Touch(0x1000, 8).Hit()).To(BeFalse())
	})

	It("hits on the second touch of the same address", func() {
		c.Touch(0x1000, 8)
		Expect(c.Touch(0x1000, 8).Hit()).To(BeTrue())
	})

	It("hits on every sub-line access of a warm line, including the last byte", func() {
		base := uint64(0x2000)
		c.Touch(base, 1)
		for off := uint64(0); off < 64; off++ {
			Expect(c.Touch(base+off, 1).Hit()).To(BeTrue())
		}
	})

	It("produces exactly k misses for a k*line_size access on a line-aligned address", func() {
		ev := c.Touch(0, 3*64)
		Expect(ev.Misses).To(Equal(uint64(3)))
		Expect(ev.Hits).To(Equal(uint64(0)))
	})

	It("evicts and misses exactly once when a different tag maps to the same index", func() {
		c.Touch(0, 8)

		// block_bits(6) + index_bits(9) for a 32KiB/64B/1-way geometry
		// (512 lines, 1 way per set -> 512 sets).
		sameIndexAddr := uint64(1) << 15
		ev := c.Touch(sameIndexAddr, 8)

		Expect(ev.Misses).To(Equal(uint64(1)))
		Expect(ev.Hits).To(Equal(uint64(0)))
		Expect(ev.Evictions).To(Equal(uint64(1)))
		Expect(c.Hits()).To(Equal(uint64(0)))
		Expect(c.Misses()).To(Equal(uint64(2)))
		Expect(c.Evictions()).To(Equal(uint64(1)))
	})
})

var _ = Describe("SetAssociativeCache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		geom, err := cache.NewGeometry(32*1024, 64, 4)
		Expect(err).NotTo(HaveOccurred())
		c, err = cache.New(cache.SetAssociative, geom, clock.New())
		Expect(err).NotTo(HaveOccurred())
	})

	It("produces exactly 1 eviction when N+1 distinct tags share an index", func() {
		// block_bits=6, index_bits=log2(32KiB/64/4)=7: striding by the
		// set count keeps every access mapped to index 0 with a distinct
		// tag.
		stride := uint64(1) << 13
		for i := uint64(0); i < 5; i++ {
			c.Touch(i*stride, 8)
		}

		Expect(c.Misses()).To(Equal(uint64(5)))
		Expect(c.Hits()).To(Equal(uint64(0)))
		Expect(c.Evictions()).To(Equal(uint64(1)))
	})

	It("does not reset a hit entry's age", func() {
		stride := uint64(1) << 13
		c.Touch(0, 8)        // way holding tag 0 installed, age 0
		c.Touch(stride, 8)   // ages the set by 1; installs tag 1
		c.Touch(2*stride, 8) // ages again; installs tag 2

		ev := c.Touch(0, 8) // hit on tag 0, but its age is not reset
		Expect(ev.Hit()).To(BeTrue())

		// A 4th distinct tag should now pick the true max-age entry, not
		// be thrown off by the hit above resetting anything.
		c.Touch(3*stride, 8)
		evictEv := c.Touch(4*stride, 8)
		Expect(evictEv.Evictions).To(Equal(uint64(1)))

		// Tag 0 kept its age through the hit, so it was the victim; had
		// the hit reset its age, tag 1 would have been evicted instead.
		Expect(c.Touch(0, 8).Hit()).To(BeFalse())
	})
})

var _ = Describe("Cache accounting", func() {
	It("never lets evictions exceed misses", func() {
		geom, err := cache.NewGeometry(1024, 64, 2)
		Expect(err).NotTo(HaveOccurred())
		c, err := cache.New(cache.SetAssociative, geom, clock.New())
		Expect(err).NotTo(HaveOccurred())

		stride := uint64(1) << 10
		for i := uint64(0); i < 50; i++ {
			c.Touch((i%7)*stride, 8)
		}

		Expect(c.Evictions() <= c.Misses()).To(BeTrue())
		Expect(c.Hits() + c.Misses()).To(Equal(c.Total()))
	})
})
