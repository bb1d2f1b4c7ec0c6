package cache

// OutcomeKind classifies a single cache access.
type OutcomeKind int

const (
	// Hit means a valid line already held the requested tag.
	Hit OutcomeKind = iota
	// MissFill means the block was installed into an empty line.
	MissFill
	// MissEvict means the block replaced the least recently used line.
	MissEvict
)

// String returns the lower-case name used in verbose traces.
func (k OutcomeKind) String() string {
	switch k {
	case Hit:
		return "hit"
	case MissFill:
		return "miss"
	case MissEvict:
		return "eviction"
	default:
		return "unknown"
	}
}

// IsMiss reports whether the access missed, with or without eviction.
func (k OutcomeKind) IsMiss() bool {
	return k == MissFill || k == MissEvict
}

// Outcome describes what a single access did to the cache.
type Outcome struct {
	Kind     OutcomeKind
	SetIndex int
	// Way is the line within the set that was hit, filled or replaced.
	Way int
	Tag uint64
	// EvictedTag is the tag that was replaced. Only meaningful for MissEvict.
	EvictedTag uint64
}

// Engine runs the hit/miss/eviction decision against a Store. It owns the
// recency timer shared by all sets and the run statistics.
type Engine struct {
	store *Store
	timer uint64
	stats Statistics
}

// NewEngine creates an engine over a freshly allocated store.
func NewEngine(geometry Geometry) *Engine {
	return &Engine{store: NewStore(geometry)}
}

// Store returns the underlying store.
func (e *Engine) Store() *Store {
	return e.store
}

// Geometry returns the cache geometry.
func (e *Engine) Geometry() Geometry {
	return e.store.Geometry()
}

// Stats returns the statistics accumulated so far.
func (e *Engine) Stats() Statistics {
	return e.stats
}

// Timer returns the last recency stamp handed out.
func (e *Engine) Timer() uint64 {
	return e.timer
}

// Access decodes addr, runs it through its set and counts the outcome.
func (e *Engine) Access(addr uint64) Outcome {
	tag, setIndex := e.store.Geometry().Decode(addr)

	outcome := e.AccessSet(e.store.Set(setIndex), tag)
	outcome.SetIndex = setIndex
	e.stats.Record(outcome.Kind)

	return outcome
}

// AccessSet looks tag up in set and updates the set. A single scan finds the
// matching line, the first empty line and the valid line with the oldest
// stamp. The returned outcome leaves SetIndex unset and is not counted in the
// engine statistics.
func (e *Engine) AccessSet(set *Set, tag uint64) Outcome {
	empty := -1
	lru := -1

	for i := range set.Lines {
		line := &set.Lines[i]

		if !line.Valid {
			if empty < 0 {
				empty = i
			}

			continue
		}

		if line.Tag == tag {
			e.stamp(line)
			return Outcome{Kind: Hit, Way: i, Tag: tag}
		}

		if lru < 0 || line.Recency < set.Lines[lru].Recency {
			lru = i
		}
	}

	if empty >= 0 {
		line := &set.Lines[empty]
		line.Valid = true
		line.Tag = tag
		e.stamp(line)

		return Outcome{Kind: MissFill, Way: empty, Tag: tag}
	}

	line := &set.Lines[lru]
	evicted := line.Tag
	line.Tag = tag
	e.stamp(line)

	return Outcome{Kind: MissEvict, Way: lru, Tag: tag, EvictedTag: evicted}
}

// Lookup reports where addr is resident without changing any state.
func (e *Engine) Lookup(addr uint64) (setIndex, way int, ok bool) {
	tag, setIndex := e.store.Geometry().Decode(addr)
	set := e.store.Set(setIndex)

	for i := range set.Lines {
		if set.Lines[i].Valid && set.Lines[i].Tag == tag {
			return setIndex, i, true
		}
	}

	return setIndex, -1, false
}

// Reset invalidates all lines and clears the timer and statistics.
func (e *Engine) Reset() {
	e.store.Reset()
	e.timer = 0
	e.stats = Statistics{}
}

func (e *Engine) stamp(line *Line) {
	e.timer++
	line.Recency = e.timer
}
