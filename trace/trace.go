// Package trace reads valgrind lackey style memory traces.
//
// Each line is "op address,size" where op is one of I, L, S or M, the address
// is hexadecimal and the size decimal. Instruction fetches (I) are not data
// accesses and are never returned by the reader.
package trace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op is the operation code of a trace line.
type Op byte

const (
	// OpInstruction is an instruction fetch.
	OpInstruction Op = 'I'
	// OpLoad is a data load.
	OpLoad Op = 'L'
	// OpStore is a data store.
	OpStore Op = 'S'
	// OpModify is a load followed by a store to the same address.
	OpModify Op = 'M'
)

// String returns the single-letter trace code.
func (o Op) String() string {
	return string(rune(o))
}

// IsData reports whether the op is a data access that the simulator replays.
func (o Op) IsData() bool {
	return o == OpLoad || o == OpStore || o == OpModify
}

// Event is a single data access from a trace.
type Event struct {
	Op      Op
	Address uint64
	// Size is the number of bytes accessed. Accesses are assumed not to cross
	// block boundaries, so the simulator does not use it.
	Size int
}

// String formats the event the way it appears in verbose output.
func (e Event) String() string {
	return fmt.Sprintf("%s %x,%d", e.Op, e.Address, e.Size)
}

// ErrMalformedLine is returned for data lines that cannot be parsed.
var ErrMalformedLine = errors.New("malformed trace line")

// ParseLine parses a single trace line. The boolean result is false for
// lines that carry no data access: blank lines and instruction fetches.
func ParseLine(line string) (Event, bool, error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return Event{}, false, nil
	}

	op := Op(text[0])
	if op == OpInstruction {
		return Event{}, false, nil
	}

	if !op.IsData() {
		return Event{}, false, fmt.Errorf("%w: unknown operation %q", ErrMalformedLine, text[0])
	}

	rest := strings.TrimSpace(text[1:])
	addrText, sizeText, found := strings.Cut(rest, ",")
	if !found {
		return Event{}, false, fmt.Errorf("%w: missing size in %q", ErrMalformedLine, text)
	}

	addrText = strings.TrimPrefix(strings.TrimSpace(addrText), "0x")
	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Event{}, false, fmt.Errorf("%w: bad address in %q: %v", ErrMalformedLine, text, err)
	}

	size, err := strconv.Atoi(strings.TrimSpace(sizeText))
	if err != nil {
		return Event{}, false, fmt.Errorf("%w: bad size in %q: %v", ErrMalformedLine, text, err)
	}

	return Event{Op: op, Address: addr, Size: size}, true, nil
}
