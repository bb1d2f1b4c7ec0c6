package cache

// Line is a single cache line.
type Line struct {
	Valid bool
	Tag   uint64
	// Recency is the timer stamp of the last access that touched the line.
	// Within a set, the valid line with the smallest stamp is the LRU line.
	Recency uint64
}

// A Set is a fixed-length group of lines that a block can be stored in.
type Set struct {
	Lines []Line
}

// ValidLines returns how many lines of the set hold a block.
func (s *Set) ValidLines() int {
	n := 0
	for i := range s.Lines {
		if s.Lines[i].Valid {
			n++
		}
	}

	return n
}

// Store owns every set and line of the cache. All lines live in a single
// backing slice that is carved into sets once at construction.
type Store struct {
	geometry Geometry
	lines    []Line
	sets     []Set
}

// NewStore allocates an empty store for the given geometry.
func NewStore(geometry Geometry) *Store {
	numSets := geometry.NumSets()
	ways := geometry.Associativity

	s := &Store{
		geometry: geometry,
		lines:    make([]Line, numSets*ways),
		sets:     make([]Set, numSets),
	}

	for i := range s.sets {
		s.sets[i].Lines = s.lines[i*ways : (i+1)*ways : (i+1)*ways]
	}

	return s
}

// Geometry returns the geometry the store was built for.
func (s *Store) Geometry() Geometry {
	return s.geometry
}

// NumSets returns the number of sets in the store.
func (s *Store) NumSets() int {
	return len(s.sets)
}

// Set returns the set at the given index.
func (s *Store) Set(index int) *Set {
	return &s.sets[index]
}

// ValidLines returns how many lines in the whole store hold a block.
func (s *Store) ValidLines() int {
	n := 0
	for i := range s.lines {
		if s.lines[i].Valid {
			n++
		}
	}

	return n
}

// Reset invalidates every line.
func (s *Store) Reset() {
	clear(s.lines)
}
