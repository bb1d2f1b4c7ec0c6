package replay_test

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/replay"
	"github.com/sarchlab/csim/trace"
)

var _ = Describe("Replayer", func() {
	var (
		mockCtrl *gomock.Controller
		accessor *MockAccessor
		observer *MockObserver
		source   *MockEventSource
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		accessor = NewMockAccessor(mockCtrl)
		observer = NewMockObserver(mockCtrl)
		source = NewMockEventSource(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Describe("Replay", func() {
		It("should access once for a load", func() {
			accessor.EXPECT().Access(uint64(0x10)).Return(cache.Outcome{Kind: cache.MissFill})

			r := replay.New(accessor)
			outcomes := r.Replay(trace.Event{Op: trace.OpLoad, Address: 0x10, Size: 1})

			Expect(outcomes).To(HaveLen(1))
			Expect(outcomes[0].Kind).To(Equal(cache.MissFill))
			Expect(r.Events()).To(Equal(uint64(1)))
		})

		It("should access once for a store", func() {
			accessor.EXPECT().Access(uint64(0x20)).Return(cache.Outcome{Kind: cache.Hit})

			outcomes := replay.New(accessor).
				Replay(trace.Event{Op: trace.OpStore, Address: 0x20, Size: 8})

			Expect(outcomes).To(HaveLen(1))
		})

		It("should access the same address twice for a modify", func() {
			gomock.InOrder(
				accessor.EXPECT().Access(uint64(0x30)).Return(cache.Outcome{Kind: cache.MissEvict}),
				accessor.EXPECT().Access(uint64(0x30)).Return(cache.Outcome{Kind: cache.Hit}),
			)

			outcomes := replay.New(accessor).
				Replay(trace.Event{Op: trace.OpModify, Address: 0x30, Size: 4})

			Expect(outcomes).To(HaveLen(2))
			Expect(outcomes[0].Kind).To(Equal(cache.MissEvict))
			Expect(outcomes[1].Kind).To(Equal(cache.Hit))
		})

		It("should ignore instruction fetches", func() {
			r := replay.New(accessor)

			Expect(r.Replay(trace.Event{Op: trace.OpInstruction, Address: 0x40})).To(BeEmpty())
			Expect(r.Events()).To(BeZero())
		})
	})

	Describe("Run", func() {
		It("should notify observers with a running sequence number", func() {
			load := trace.Event{Op: trace.OpLoad, Address: 0x10, Size: 1}
			modify := trace.Event{Op: trace.OpModify, Address: 0x10, Size: 1}

			gomock.InOrder(
				source.EXPECT().Next().Return(load, nil),
				source.EXPECT().Next().Return(modify, nil),
				source.EXPECT().Next().Return(trace.Event{}, io.EOF),
			)
			accessor.EXPECT().Access(uint64(0x10)).Return(cache.Outcome{Kind: cache.Hit}).Times(3)
			accessor.EXPECT().Stats().Return(cache.Statistics{Hits: 3})

			gomock.InOrder(
				observer.EXPECT().ObserveEvent(uint64(1), load, gomock.Len(1)).Return(nil),
				observer.EXPECT().ObserveEvent(uint64(2), modify, gomock.Len(2)).Return(nil),
			)

			stats, err := replay.New(accessor, replay.WithObserver(observer)).
				Run(context.Background(), source)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Hits).To(Equal(uint64(3)))
		})

		It("should stop on observer errors", func() {
			load := trace.Event{Op: trace.OpLoad, Address: 0x10, Size: 1}

			source.EXPECT().Next().Return(load, nil)
			accessor.EXPECT().Access(uint64(0x10)).Return(cache.Outcome{Kind: cache.MissFill})
			accessor.EXPECT().Stats().Return(cache.Statistics{Misses: 1})
			observer.EXPECT().ObserveEvent(uint64(1), load, gomock.Any()).
				Return(errors.New("database is locked"))

			_, err := replay.New(accessor, replay.WithObserver(observer)).
				Run(context.Background(), source)

			Expect(err).To(MatchError(ContainSubstring("database is locked")))
		})

		It("should wrap source errors", func() {
			sourceErr := errors.New("truncated")
			source.EXPECT().Next().Return(trace.Event{}, sourceErr)
			accessor.EXPECT().Stats().Return(cache.Statistics{})

			_, err := replay.New(accessor).Run(context.Background(), source)

			Expect(err).To(MatchError(sourceErr))
		})

		It("should stop when the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			accessor.EXPECT().Stats().Return(cache.Statistics{})

			_, err := replay.New(accessor).Run(ctx, source)

			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("Replaying traces", func() {
	run := func(g cache.Geometry, text string) cache.Statistics {
		r := replay.New(cache.NewEngine(g))

		stats, err := r.Run(context.Background(), trace.NewReader(strings.NewReader(text)))
		Expect(err).NotTo(HaveOccurred())

		return stats
	}

	It("should count the s=1 E=1 b=1 example", func() {
		stats := run(
			cache.Geometry{SetBits: 1, Associativity: 1, BlockBits: 1},
			" L 0,1\n L 1,1\n L 8,1\n",
		)
		Expect(stats).To(Equal(cache.Statistics{Hits: 1, Misses: 2, Evictions: 1}))
	})

	It("should count a single modify as one miss and one hit", func() {
		stats := run(
			cache.Geometry{SetBits: 2, Associativity: 1, BlockBits: 4},
			" M 0,1\n",
		)
		Expect(stats).To(Equal(cache.Statistics{Hits: 1, Misses: 1}))
	})

	It("should skip instruction fetches in the trace", func() {
		stats := run(
			cache.Geometry{SetBits: 2, Associativity: 1, BlockBits: 4},
			"I 0,4\nI 100,4\n L 0,4\n",
		)
		Expect(stats).To(Equal(cache.Statistics{Misses: 1}))
	})

	It("should count a modify of a resident block as two hits", func() {
		stats := run(
			cache.Geometry{SetBits: 2, Associativity: 1, BlockBits: 4},
			" L 0,1\n M 4,1\n",
		)
		Expect(stats).To(Equal(cache.Statistics{Hits: 2, Misses: 1}))
	})

	DescribeTable("should always hit on the second half of a modify",
		func(accessor replay.Accessor, seed uint64) {
			r := replay.New(accessor)
			rng := rand.New(rand.NewPCG(seed, 7))
			ops := []trace.Op{trace.OpLoad, trace.OpStore, trace.OpModify}

			for i := 0; i < 3000; i++ {
				event := trace.Event{
					Op:      ops[rng.IntN(len(ops))],
					Address: rng.Uint64N(1 << 12),
					Size:    8,
				}

				outcomes := r.Replay(event)
				if event.Op == trace.OpModify {
					Expect(outcomes).To(HaveLen(2))
					Expect(outcomes[1].Kind).To(Equal(cache.Hit), "event %d: %s", i, event)
				}
			}
		},
		Entry("native engine",
			cache.NewEngine(cache.Geometry{SetBits: 3, Associativity: 2, BlockBits: 4}), uint64(11)),
		Entry("akita directory engine",
			cache.NewDirectoryEngine(cache.Geometry{SetBits: 3, Associativity: 2, BlockBits: 4}), uint64(12)),
		Entry("direct mapped",
			cache.NewEngine(cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 2}), uint64(13)),
	)
})
