package report_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/report"
	"github.com/sarchlab/csim/trace"
)

var _ = Describe("Report", func() {
	stats := cache.Statistics{Hits: 4, Misses: 5, Evictions: 3}

	It("should print the summary line", func() {
		var buf bytes.Buffer
		Expect(report.PrintSummary(&buf, stats)).To(Succeed())
		Expect(buf.String()).To(Equal("hits:4 misses:5 evictions:3\n"))
	})

	It("should write the results file", func() {
		path := filepath.Join(GinkgoT().TempDir(), ".csim_results")
		Expect(report.WriteResults(path, stats)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("4 5 3\n"))
	})

	It("should skip the results file without a path", func() {
		Expect(report.WriteResults("", stats)).To(Succeed())
	})

	It("should fail when the results file cannot be written", func() {
		path := filepath.Join(GinkgoT().TempDir(), "missing", "results")
		Expect(report.WriteResults(path, stats)).To(MatchError(os.ErrNotExist))
	})

	DescribeTable("should annotate events",
		func(event trace.Event, kinds []cache.OutcomeKind, expected string) {
			outcomes := make([]cache.Outcome, len(kinds))
			for i, k := range kinds {
				outcomes[i].Kind = k
			}
			Expect(report.Annotate(event, outcomes)).To(Equal(expected))
		},
		Entry("load miss",
			trace.Event{Op: trace.OpLoad, Address: 0x10, Size: 1},
			[]cache.OutcomeKind{cache.MissFill}, "L 10,1 miss"),
		Entry("store hit",
			trace.Event{Op: trace.OpStore, Address: 0x18, Size: 1},
			[]cache.OutcomeKind{cache.Hit}, "S 18,1 hit"),
		Entry("modify with eviction",
			trace.Event{Op: trace.OpModify, Address: 0x20, Size: 1},
			[]cache.OutcomeKind{cache.MissEvict, cache.Hit}, "M 20,1 miss eviction hit"),
		Entry("modify hit",
			trace.Event{Op: trace.OpModify, Address: 0x22, Size: 1},
			[]cache.OutcomeKind{cache.Hit, cache.Hit}, "M 22,1 hit hit"),
	)

	It("should print one line per event", func() {
		var buf bytes.Buffer
		printer := report.NewVerbosePrinter(&buf)

		Expect(printer.ObserveEvent(1,
			trace.Event{Op: trace.OpLoad, Address: 0x10, Size: 1},
			[]cache.Outcome{{Kind: cache.MissFill}})).To(Succeed())
		Expect(printer.ObserveEvent(2,
			trace.Event{Op: trace.OpModify, Address: 0x10, Size: 1},
			[]cache.Outcome{{Kind: cache.Hit}, {Kind: cache.Hit}})).To(Succeed())

		Expect(buf.String()).To(Equal("L 10,1 miss\nM 10,1 hit hit\n"))
	})
})
