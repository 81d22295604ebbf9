package cache

// Classification is the outcome of a single cache access.
type Classification uint8

const (
	// Hit means a valid line in the set already held the tag.
	Hit Classification = iota
	// Miss means the tag was installed into a free line.
	Miss
	// MissWithEviction means the set was full and the least recently used
	// line was replaced.
	MissWithEviction
)

// String returns the token used in verbose trace output.
func (c Classification) String() string {
	switch c {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case MissWithEviction:
		return "miss eviction"
	default:
		return "unknown"
	}
}

// Counters accumulates access outcomes for a whole run.
type Counters struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Accesses returns the number of classified accesses.
func (c Counters) Accesses() uint64 {
	return c.Hits + c.Misses
}

func (c *Counters) count(class Classification) {
	switch class {
	case Hit:
		c.Hits++
	case Miss:
		c.Misses++
	case MissWithEviction:
		c.Misses++
		c.Evictions++
	}
}

// Line is one slot of a set.
type Line struct {
	Valid    bool
	Tag      uint64
	LastUsed uint64
}

// Simulator is the timestamp-based LRU cache model.
//
// Lines are stored flat, the line for (set, way) living at
// set*Associativity + way. Every access that touches a line advances the
// clock once and stamps the line with the new value, so valid lines in a set
// always carry distinct timestamps.
type Simulator struct {
	geometry Geometry
	lines    []Line
	clock    uint64
	counters Counters
}

// NewSimulator allocates an empty cache with the given geometry. The geometry
// must satisfy Geometry.Validate; NewSimulator does not check it.
func NewSimulator(g Geometry) *Simulator {
	return &Simulator{
		geometry: g,
		lines:    make([]Line, g.Lines()),
	}
}

// Geometry returns the cache geometry.
func (s *Simulator) Geometry() Geometry {
	return s.geometry
}

// Counters returns the outcomes accumulated so far.
func (s *Simulator) Counters() Counters {
	return s.counters
}

// Clock returns the current value of the recency clock.
func (s *Simulator) Clock() uint64 {
	return s.clock
}

// Lines returns a copy of the lines of one set, in way order.
func (s *Simulator) Lines(setIndex uint64) []Line {
	set := s.set(setIndex)
	out := make([]Line, len(set))
	copy(out, set)
	return out
}

// Reset invalidates every line and clears the counters and the clock.
func (s *Simulator) Reset() {
	clear(s.lines)
	s.clock = 0
	s.counters = Counters{}
}

func (s *Simulator) set(setIndex uint64) []Line {
	ways := uint64(s.geometry.Associativity)
	start := setIndex * ways
	return s.lines[start : start+ways]
}

func (s *Simulator) touch(line *Line, tag uint64) {
	s.clock++
	line.Valid = true
	line.Tag = tag
	line.LastUsed = s.clock
}

// Access looks the tag up in the set, installing it on a miss.
func (s *Simulator) Access(setIndex, tag uint64) Classification {
	set := s.set(setIndex)

	for i := range set {
		if set[i].Valid && set[i].Tag == tag {
			s.touch(&set[i], tag)
			s.counters.count(Hit)
			return Hit
		}
	}

	for i := range set {
		if !set[i].Valid {
			s.touch(&set[i], tag)
			s.counters.count(Miss)
			return Miss
		}
	}

	s.touch(&set[victim(set)], tag)
	s.counters.count(MissWithEviction)
	return MissWithEviction
}

// AccessModify applies a load and then a store to the same block.
func (s *Simulator) AccessModify(setIndex, tag uint64) (Classification, Classification) {
	return Modify(s, setIndex, tag)
}

// victim returns the way with the oldest timestamp. Ties go to the lowest way.
func victim(set []Line) int {
	lru := 0
	for i := 1; i < len(set); i++ {
		if set[i].LastUsed < set[lru].LastUsed {
			lru = i
		}
	}
	return lru
}
