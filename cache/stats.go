package cache

// Statistics holds the hit, miss and eviction counts of a run.
type Statistics struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Record counts one access outcome. Every miss counts as a miss; a miss that
// replaced a valid line also counts as an eviction.
func (s *Statistics) Record(kind OutcomeKind) {
	switch kind {
	case Hit:
		s.Hits++
	case MissFill:
		s.Misses++
	case MissEvict:
		s.Misses++
		s.Evictions++
	}
}

// Accesses returns the total number of accesses counted.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of accesses that hit, or 0 without accesses.
func (s Statistics) HitRate() float64 {
	total := s.Accesses()
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// Add returns the element-wise sum of two statistics.
func (s Statistics) Add(other Statistics) Statistics {
	return Statistics{
		Hits:      s.Hits + other.Hits,
		Misses:    s.Misses + other.Misses,
		Evictions: s.Evictions + other.Evictions,
	}
}
