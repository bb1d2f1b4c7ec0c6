package cache_test

import (
	"math/rand/v2"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
)

// lruModel keeps one golang-lru list per set and counts like the simulator.
type lruModel struct {
	geometry cache.Geometry
	sets     []*simplelru.LRU[uint64, struct{}]
	stats    cache.Statistics
}

func newLRUModel(g cache.Geometry) *lruModel {
	m := &lruModel{geometry: g}
	for i := 0; i < g.NumSets(); i++ {
		l, err := simplelru.NewLRU[uint64, struct{}](g.Associativity, nil)
		Expect(err).NotTo(HaveOccurred())
		m.sets = append(m.sets, l)
	}

	return m
}

func (m *lruModel) access(addr uint64) cache.OutcomeKind {
	tag, setIndex := m.geometry.Decode(addr)
	set := m.sets[setIndex]

	kind := cache.MissFill
	if _, ok := set.Get(tag); ok {
		kind = cache.Hit
	} else if set.Add(tag, struct{}{}) {
		kind = cache.MissEvict
	}

	m.stats.Record(kind)

	return kind
}

var _ = Describe("DirectoryEngine", func() {
	var (
		geometry  cache.Geometry
		directory *cache.DirectoryEngine
	)

	BeforeEach(func() {
		geometry = cache.Geometry{SetBits: 2, Associativity: 4, BlockBits: 4}
		directory = cache.NewDirectoryEngine(geometry)
	})

	It("should miss, then hit on the same block", func() {
		Expect(directory.Access(0x1000).Kind).To(Equal(cache.MissFill))
		Expect(directory.Access(0x1008).Kind).To(Equal(cache.Hit))
		Expect(directory.Stats()).To(Equal(cache.Statistics{Hits: 1, Misses: 1}))
	})

	It("should report the evicted tag", func() {
		for tag := uint64(20); tag < 24; tag++ {
			directory.Access(addrFor(geometry, tag, 3))
		}
		directory.Access(addrFor(geometry, 20, 3))

		outcome := directory.Access(addrFor(geometry, 24, 3))
		Expect(outcome.Kind).To(Equal(cache.MissEvict))
		Expect(outcome.SetIndex).To(Equal(3))
		Expect(outcome.EvictedTag).To(Equal(uint64(21)))
	})

	It("should clear on reset", func() {
		directory.Access(0x40)
		directory.Reset()

		Expect(directory.Stats()).To(Equal(cache.Statistics{}))
		Expect(directory.Access(0x40).Kind).To(Equal(cache.MissFill))
	})

	DescribeTable("should agree with the native engine and an LRU model",
		func(g cache.Geometry, addrRange uint64, seed uint64) {
			native := cache.NewEngine(g)
			akita := cache.NewDirectoryEngine(g)
			model := newLRUModel(g)
			rng := rand.New(rand.NewPCG(seed, seed+1))

			for i := 0; i < 5000; i++ {
				addr := rng.Uint64N(addrRange)

				a := native.Access(addr)
				b := akita.Access(addr)
				kind := model.access(addr)

				Expect(b.Kind).To(Equal(a.Kind), "access %d at %#x", i, addr)
				Expect(kind).To(Equal(a.Kind), "access %d at %#x", i, addr)
				Expect(b.Way).To(Equal(a.Way), "access %d at %#x", i, addr)
				if a.Kind == cache.MissEvict {
					Expect(b.EvictedTag).To(Equal(a.EvictedTag))
				}
			}

			Expect(akita.Stats()).To(Equal(native.Stats()))
			Expect(model.stats).To(Equal(native.Stats()))
		},
		Entry("direct mapped", cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4}, uint64(4096), uint64(1)),
		Entry("two-way", cache.Geometry{SetBits: 2, Associativity: 2, BlockBits: 3}, uint64(1024), uint64(2)),
		Entry("four-way", cache.Geometry{SetBits: 1, Associativity: 4, BlockBits: 4}, uint64(2048), uint64(3)),
		Entry("fully associative", cache.Geometry{SetBits: 0, Associativity: 8, BlockBits: 2}, uint64(256), uint64(4)),
		Entry("large", cache.Geometry{SetBits: 5, Associativity: 6, BlockBits: 5}, uint64(1<<16), uint64(5)),
	)
})
