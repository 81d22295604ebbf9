package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
)

var _ = Describe("Decode", func() {
	It("should put adjacent bytes of a 1-byte block in different sets", func() {
		g := cache.Geometry{SetIndexBits: 1, Associativity: 1, BlockOffsetBits: 0}

		set, tag := cache.Decode(0x0, g)
		Expect(set).To(Equal(uint64(0)))
		Expect(tag).To(Equal(uint64(0)))

		set, tag = cache.Decode(0x1, g)
		Expect(set).To(Equal(uint64(1)))
		Expect(tag).To(Equal(uint64(0)))
	})

	It("should drop the block offset bits", func() {
		g := cache.Geometry{SetIndexBits: 4, Associativity: 1, BlockOffsetBits: 4}

		// 0x1234: offset 0x4, set 0x3, tag 0x12
		set, tag := cache.Decode(0x1234, g)
		Expect(set).To(Equal(uint64(0x3)))
		Expect(tag).To(Equal(uint64(0x12)))

		set2, tag2 := cache.Decode(0x123F, g)
		Expect(set2).To(Equal(set))
		Expect(tag2).To(Equal(tag))
	})

	It("should map everything to set 0 when there are no set bits", func() {
		g := cache.Geometry{SetIndexBits: 0, Associativity: 2, BlockOffsetBits: 3}

		set, tag := cache.Decode(0xFFF8, g)
		Expect(set).To(Equal(uint64(0)))
		Expect(tag).To(Equal(uint64(0x1FFF)))
	})

	It("should keep all high-order bits of a 64-bit address in the tag", func() {
		g := cache.Geometry{SetIndexBits: 5, Associativity: 1, BlockOffsetBits: 6}

		set, tag := cache.Decode(0xFFFF_FFFF_FFFF_FFFF, g)
		Expect(set).To(Equal(uint64(31)))
		Expect(tag).To(Equal(uint64(0xFFFF_FFFF_FFFF_FFFF >> 11)))
	})

	It("should give a zero tag when set and block bits cover the address", func() {
		g := cache.Geometry{SetIndexBits: 0, Associativity: 1, BlockOffsetBits: 64}

		set, tag := cache.Decode(0xDEADBEEF, g)
		Expect(set).To(Equal(uint64(0)))
		Expect(tag).To(Equal(uint64(0)))
	})

	It("should be inverted by BlockAddress", func() {
		g := cache.Geometry{SetIndexBits: 3, Associativity: 4, BlockOffsetBits: 5}

		addr := g.BlockAddress(5, 0x7F)
		set, tag := cache.Decode(addr, g)
		Expect(set).To(Equal(uint64(5)))
		Expect(tag).To(Equal(uint64(0x7F)))
		Expect(addr % g.BlockSize()).To(BeZero())
	})
})
