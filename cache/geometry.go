// Package cache models a set-associative cache with least-recently-used
// replacement, driven one access at a time.
package cache

// Geometry describes the shape of a cache. It is fixed for the lifetime of a
// simulation run.
type Geometry struct {
	// SetBits is the number of address bits selecting the set (s).
	SetBits int
	// Associativity is the number of lines per set (E).
	Associativity int
	// BlockBits is the number of low-order block-offset bits (b).
	BlockBits int
}

// NumSets returns the number of sets, 2^s.
func (g Geometry) NumSets() int {
	return 1 << uint(g.SetBits)
}

// BlockSize returns the block size in bytes, 2^b.
func (g Geometry) BlockSize() int {
	return 1 << uint(g.BlockBits)
}

// NumLines returns the total number of lines in the cache.
func (g Geometry) NumLines() int {
	return g.NumSets() * g.Associativity
}

// Size returns the data capacity of the cache in bytes.
func (g Geometry) Size() int {
	return g.NumLines() * g.BlockSize()
}

// Decode splits an address into its tag and set index under this geometry.
func (g Geometry) Decode(addr uint64) (tag uint64, setIndex int) {
	return Decode(addr, g.SetBits, g.BlockBits)
}

// BlockAddress clears the block-offset bits of addr.
func (g Geometry) BlockAddress(addr uint64) uint64 {
	return addr &^ (uint64(1)<<uint(g.BlockBits) - 1)
}

// Decode maps an address to a (tag, set index) pair. The set index is the s
// bits right above the b block-offset bits; the tag is everything above
// those. Shifts of 64 or more yield zero.
func Decode(addr uint64, s, b int) (tag uint64, setIndex int) {
	mask := uint64(1)<<uint(s) - 1
	setIndex = int((addr >> uint(b)) & mask)
	tag = addr >> uint(s+b)

	return tag, setIndex
}
