package cache

import "fmt"

// Names of the models NewModel can build.
const (
	ModelCore      = "core"
	ModelAkita     = "akita"
	ModelGolangLRU = "golang-lru"
)

// Model is anything that classifies accesses to a set-associative cache.
type Model interface {
	// Access applies one access to the given set and tag.
	Access(setIndex, tag uint64) Classification
	// Counters returns the outcomes accumulated so far.
	Counters() Counters
	// Reset invalidates every line and clears the counters.
	Reset()
}

// Modify applies a data-modify access, a load followed by a store to the same
// block. The second access always hits because the first one leaves the block
// valid and most recently used.
func Modify(m Model, setIndex, tag uint64) (Classification, Classification) {
	first := m.Access(setIndex, tag)
	second := m.Access(setIndex, tag)
	return first, second
}

// NewModel builds the named model for a geometry.
func NewModel(name string, g Geometry) (Model, error) {
	switch name {
	case ModelCore, "":
		return NewSimulator(g), nil
	case ModelAkita:
		return NewDirectoryModel(g), nil
	case ModelGolangLRU:
		return NewListModel(g), nil
	default:
		return nil, fmt.Errorf("unknown model %q (want %s, %s or %s)",
			name, ModelCore, ModelAkita, ModelGolangLRU)
	}
}
