package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ListModel classifies accesses with one hashicorp LRU list per set. Sets are
// created on first touch, so sparse traces over many sets stay small.
type ListModel struct {
	geometry Geometry
	sets     []*lru.Cache[uint64, struct{}]
	counters Counters
}

// NewListModel creates a list-backed model for the geometry.
func NewListModel(g Geometry) *ListModel {
	return &ListModel{
		geometry: g,
		sets:     make([]*lru.Cache[uint64, struct{}], g.SetCount()),
	}
}

// Counters returns the outcomes accumulated so far.
func (m *ListModel) Counters() Counters {
	return m.counters
}

// Reset drops every set and clears the counters.
func (m *ListModel) Reset() {
	clear(m.sets)
	m.counters = Counters{}
}

// Access promotes the tag on a hit and adds it on a miss.
func (m *ListModel) Access(setIndex, tag uint64) Classification {
	set := m.sets[setIndex]
	if set == nil {
		// Only fails for a non-positive size, which Validate rules out.
		set, _ = lru.New[uint64, struct{}](m.geometry.Associativity)
		m.sets[setIndex] = set
	}

	if _, ok := set.Get(tag); ok {
		m.counters.count(Hit)
		return Hit
	}

	class := Miss
	if evicted := set.Add(tag, struct{}{}); evicted {
		class = MissWithEviction
	}

	m.counters.count(class)
	return class
}
