package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Reader streams data access events from a trace.
type Reader struct {
	scanner *bufio.Scanner
	lenient bool

	lineNo  int
	skipped int
}

// ReaderOption is a functional option for configuring the Reader.
type ReaderOption func(*Reader)

// WithLenient makes the reader skip malformed lines instead of failing.
func WithLenient() ReaderOption {
	return func(r *Reader) {
		r.lenient = true
	}
}

// NewReader creates a reader over r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{scanner: bufio.NewScanner(r)}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

// Next returns the next data access. It returns io.EOF after the last one.
func (r *Reader) Next() (Event, error) {
	for r.scanner.Scan() {
		r.lineNo++

		event, ok, err := ParseLine(r.scanner.Text())
		if err != nil {
			if r.lenient {
				r.skipped++
				continue
			}

			return Event{}, fmt.Errorf("line %d: %w", r.lineNo, err)
		}

		if ok {
			return event, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Event{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.lineNo
}

// Skipped returns how many malformed lines a lenient reader has dropped.
func (r *Reader) Skipped() int {
	return r.skipped
}

// ReadAll reads every data access from r.
func ReadAll(r io.Reader, opts ...ReaderOption) ([]Event, error) {
	reader := NewReader(r, opts...)

	var events []Event
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}

		events = append(events, event)
	}
}
