package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// DirectoryModel classifies accesses with an Akita cache directory and its LRU
// victim finder. It keeps no timestamps; recency lives in the directory's
// per-set LRU queues. It exists to cross-check Simulator.
type DirectoryModel struct {
	geometry  Geometry
	directory *akitacache.DirectoryImpl
	counters  Counters
}

// NewDirectoryModel creates a directory-backed model for the geometry.
func NewDirectoryModel(g Geometry) *DirectoryModel {
	return &DirectoryModel{
		geometry: g,
		directory: akitacache.NewDirectory(
			int(g.SetCount()),
			g.Associativity,
			1,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Counters returns the outcomes accumulated so far.
func (m *DirectoryModel) Counters() Counters {
	return m.counters
}

// Reset invalidates the directory and clears the counters.
func (m *DirectoryModel) Reset() {
	m.directory.Reset()
	m.counters = Counters{}
}

// Access looks the block up in the directory, filling a victim on a miss.
func (m *DirectoryModel) Access(setIndex, tag uint64) Classification {
	// Block offsets are already stripped, so the directory sees one-byte
	// blocks keyed by tag and set. This stays in range for b up to 64.
	blockAddr := tag<<m.geometry.SetIndexBits | setIndex

	block := m.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		m.directory.Visit(block)
		m.counters.count(Hit)
		return Hit
	}

	class := Miss
	victim := m.directory.FindVictim(blockAddr)
	if victim.IsValid {
		class = MissWithEviction
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	m.directory.Visit(victim)

	m.counters.count(class)
	return class
}
