package cache

// Decode splits an address into the set index and tag for the given geometry.
// The low BlockOffsetBits are the block offset and are discarded, the next
// SetIndexBits select the set, and everything above is the tag.
//
// Decode has no state and is safe to call concurrently.
func Decode(address uint64, g Geometry) (setIndex, tag uint64) {
	setIndex = (address >> g.BlockOffsetBits) & (g.SetCount() - 1)
	tag = address >> (g.SetIndexBits + g.BlockOffsetBits)
	return setIndex, tag
}
