// Package report prints simulation results.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// PrintSummary writes the one-line summary of a run.
func PrintSummary(w io.Writer, stats cache.Statistics) error {
	_, err := fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		stats.Hits, stats.Misses, stats.Evictions)

	return err
}

// WriteResults writes "hits misses evictions" to path for automated
// checking. An empty path writes nothing.
func WriteResults(path string, stats cache.Statistics) error {
	if path == "" {
		return nil
	}

	content := fmt.Sprintf("%d %d %d\n", stats.Hits, stats.Misses, stats.Evictions)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}

	return nil
}

// Annotate formats an event followed by one token per access outcome, e.g.
// "M 20,1 miss eviction hit".
func Annotate(event trace.Event, outcomes []cache.Outcome) string {
	var b strings.Builder

	b.WriteString(event.String())
	for _, o := range outcomes {
		switch o.Kind {
		case cache.Hit:
			b.WriteString(" hit")
		case cache.MissFill:
			b.WriteString(" miss")
		case cache.MissEvict:
			b.WriteString(" miss eviction")
		}
	}

	return b.String()
}

// VerbosePrinter writes one annotated line per replayed event.
type VerbosePrinter struct {
	w io.Writer
}

// NewVerbosePrinter creates a printer writing to w.
func NewVerbosePrinter(w io.Writer) *VerbosePrinter {
	return &VerbosePrinter{w: w}
}

// ObserveEvent prints the event and its outcomes.
func (p *VerbosePrinter) ObserveEvent(
	_ uint64,
	event trace.Event,
	outcomes []cache.Outcome,
) error {
	_, err := fmt.Fprintln(p.w, Annotate(event, outcomes))
	return err
}
