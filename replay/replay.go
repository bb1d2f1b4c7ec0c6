// Package replay drives trace events through a cache model in trace order.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

// Accessor is a cache model that can be accessed one address at a time.
type Accessor interface {
	Access(addr uint64) cache.Outcome
	Stats() cache.Statistics
}

// Observer is notified once per replayed event with the outcome of each
// access the event made.
type Observer interface {
	ObserveEvent(seq uint64, event trace.Event, outcomes []cache.Outcome) error
}

// EventSource yields events in trace order and io.EOF after the last one.
type EventSource interface {
	Next() (trace.Event, error)
}

// Replayer applies trace events to an Accessor.
type Replayer struct {
	accessor  Accessor
	observers []Observer

	events   uint64
	outcomes [2]cache.Outcome
}

// Option is a functional option for configuring the Replayer.
type Option func(*Replayer)

// WithObserver registers an observer. Observers are called in registration
// order.
func WithObserver(o Observer) Option {
	return func(r *Replayer) {
		r.observers = append(r.observers, o)
	}
}

// New creates a replayer over the accessor.
func New(accessor Accessor, opts ...Option) *Replayer {
	r := &Replayer{accessor: accessor}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Events returns how many data events have been replayed.
func (r *Replayer) Events() uint64 {
	return r.events
}

// Stats returns the statistics of the underlying accessor.
func (r *Replayer) Stats() cache.Statistics {
	return r.accessor.Stats()
}

// Replay performs the accesses of a single event and returns their outcomes.
// A modify is a load followed by a store to the same address, so it makes two
// accesses and the second always hits. Instruction fetches make none. The
// returned slice is only valid until the next call.
func (r *Replayer) Replay(event trace.Event) []cache.Outcome {
	switch event.Op {
	case trace.OpInstruction:
		return nil
	case trace.OpModify:
		r.outcomes[0] = r.accessor.Access(event.Address)
		r.outcomes[1] = r.accessor.Access(event.Address)
		r.events++

		return r.outcomes[:2]
	default:
		r.outcomes[0] = r.accessor.Access(event.Address)
		r.events++

		return r.outcomes[:1]
	}
}

// Run replays every event from src in order and notifies the observers. It
// stops at the end of the source, on the first source or observer error, or
// when ctx is done.
func (r *Replayer) Run(ctx context.Context, src EventSource) (cache.Statistics, error) {
	for {
		if err := ctx.Err(); err != nil {
			return r.Stats(), err
		}

		event, err := src.Next()
		if errors.Is(err, io.EOF) {
			return r.Stats(), nil
		}
		if err != nil {
			return r.Stats(), fmt.Errorf("failed to read event: %w", err)
		}

		outcomes := r.Replay(event)
		if len(outcomes) == 0 {
			continue
		}

		seq := r.events
		for _, o := range r.observers {
			if err := o.ObserveEvent(seq, event, outcomes); err != nil {
				return r.Stats(), fmt.Errorf("observer failed on event %d: %w", seq, err)
			}
		}
	}
}
