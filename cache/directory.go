package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// DirectoryEngine answers the same accesses as Engine but keeps its tags in an
// Akita cache directory with Akita's LRU victim finder. It serves as a second,
// independently written model of the same cache.
type DirectoryEngine struct {
	geometry Geometry

	// Akita cache directory for tag/state management. Blocks store the
	// block-aligned address as their tag.
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// NewDirectoryEngine creates a directory-backed engine for the geometry.
func NewDirectoryEngine(geometry Geometry) *DirectoryEngine {
	return &DirectoryEngine{
		geometry: geometry,
		directory: akitacache.NewDirectory(
			geometry.NumSets(),
			geometry.Associativity,
			geometry.BlockSize(),
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Geometry returns the cache geometry.
func (d *DirectoryEngine) Geometry() Geometry {
	return d.geometry
}

// Stats returns the statistics accumulated so far.
func (d *DirectoryEngine) Stats() Statistics {
	return d.stats
}

// Access performs one access and counts its outcome.
func (d *DirectoryEngine) Access(addr uint64) Outcome {
	tag, setIndex := d.geometry.Decode(addr)
	blockAddr := d.geometry.BlockAddress(addr)

	block := d.directory.Lookup(0, blockAddr) // PID 0, traces carry no address space
	if block != nil && block.IsValid {
		d.directory.Visit(block)
		d.stats.Record(Hit)

		return Outcome{
			Kind:     Hit,
			SetIndex: setIndex,
			Way:      block.WayID,
			Tag:      tag,
		}
	}

	victim := d.directory.FindVictim(blockAddr)

	outcome := Outcome{
		Kind:     MissFill,
		SetIndex: setIndex,
		Way:      victim.WayID,
		Tag:      tag,
	}

	if victim.IsValid {
		outcome.Kind = MissEvict
		outcome.EvictedTag, _ = d.geometry.Decode(victim.Tag)
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	d.directory.Visit(victim)

	d.stats.Record(outcome.Kind)

	return outcome
}

// Reset invalidates every block and clears the statistics.
func (d *DirectoryEngine) Reset() {
	d.directory.Reset()
	d.stats = Statistics{}
}
