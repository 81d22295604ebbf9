package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
)

var _ = Describe("Geometry", func() {
	It("should derive set count, block size and line count", func() {
		g := cache.Geometry{SetIndexBits: 5, Associativity: 4, BlockOffsetBits: 6}
		Expect(g.SetCount()).To(Equal(uint64(32)))
		Expect(g.BlockSize()).To(Equal(uint64(64)))
		Expect(g.Lines()).To(Equal(uint64(128)))
		Expect(g.String()).To(Equal("s=5 E=4 b=6"))
	})

	Describe("Validate", func() {
		It("should accept the default geometry", func() {
			Expect(cache.DefaultGeometry().Validate()).To(Succeed())
		})

		It("should accept a single-line cache", func() {
			g := cache.Geometry{Associativity: 1}
			Expect(g.Validate()).To(Succeed())
		})

		It("should reject zero associativity", func() {
			g := cache.Geometry{SetIndexBits: 2, Associativity: 0, BlockOffsetBits: 2}
			Expect(g.Validate()).To(MatchError(cache.ErrInvalidGeometry))
		})

		It("should reject negative associativity", func() {
			g := cache.Geometry{Associativity: -3}
			Expect(g.Validate()).To(MatchError(cache.ErrInvalidGeometry))
		})

		It("should reject more index and offset bits than an address has", func() {
			g := cache.Geometry{SetIndexBits: 40, Associativity: 1, BlockOffsetBits: 30}
			Expect(g.Validate()).To(MatchError(cache.ErrInvalidGeometry))
		})

		It("should reject caches too large to allocate", func() {
			g := cache.Geometry{SetIndexBits: 30, Associativity: 1, BlockOffsetBits: 0}
			Expect(g.Validate()).To(MatchError(cache.ErrCapacity))

			g = cache.Geometry{SetIndexBits: 20, Associativity: 1 << 20, BlockOffsetBits: 0}
			Expect(g.Validate()).To(MatchError(cache.ErrCapacity))

			g = cache.Geometry{SetIndexBits: 64, Associativity: 1}
			Expect(g.Validate()).To(MatchError(cache.ErrCapacity))
		})
	})

	Describe("Config file", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "geometry-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should round-trip through Save and LoadGeometry", func() {
			path := filepath.Join(tempDir, "geometry.json")
			g := &cache.Geometry{SetIndexBits: 5, Associativity: 8, BlockOffsetBits: 6}

			Expect(g.Save(path)).To(Succeed())

			loaded, err := cache.LoadGeometry(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(g))
		})

		It("should keep defaults for fields the file leaves out", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"associativity": 4}`), 0644)).To(Succeed())

			loaded, err := cache.LoadGeometry(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Associativity).To(Equal(4))
			Expect(loaded.SetIndexBits).To(Equal(cache.DefaultGeometry().SetIndexBits))
			Expect(loaded.BlockOffsetBits).To(Equal(cache.DefaultGeometry().BlockOffsetBits))
		})

		It("should fail on a missing file", func() {
			_, err := cache.LoadGeometry(filepath.Join(tempDir, "nope.json"))
			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed JSON", func() {
			path := filepath.Join(tempDir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"set_bits": "four"}`), 0644)).To(Succeed())

			_, err := cache.LoadGeometry(path)
			Expect(err).To(HaveOccurred())
		})
	})

	It("should clone independently", func() {
		g := cache.DefaultGeometry()
		c := g.Clone()
		c.Associativity = 8
		Expect(g.Associativity).To(Equal(1))
	})
})
