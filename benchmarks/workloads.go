package benchmarks

import (
	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/trace"
)

const wordSize = 4

// GetWorkloads returns the standard synthetic workload set.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		sequentialScan(),
		workingSetFits(),
		workingSetThrash(),
		conflictStride(),
		modifyWords(),
		transposeNaive(),
		transposeBlocked(),
	}
}

// GetTransposeWorkloads returns only the matrix transpose pair.
func GetTransposeWorkloads() []Benchmark {
	return []Benchmark{
		transposeNaive(),
		transposeBlocked(),
	}
}

func load(addr uint64) trace.Event {
	return trace.Event{Op: trace.OpLoad, Address: addr, Size: wordSize}
}

func store(addr uint64) trace.Event {
	return trace.Event{Op: trace.OpStore, Address: addr, Size: wordSize}
}

func modify(addr uint64) trace.Event {
	return trace.Event{Op: trace.OpModify, Address: addr, Size: 2 * wordSize}
}

// 1. Sequential Scan - every block misses once, then serves its other words
func sequentialScan() Benchmark {
	return Benchmark{
		Name:        "sequential_scan",
		Description: "1KB word-by-word load scan through a 256B direct-mapped cache",
		Geometry:    cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4},
		Events: func() []trace.Event {
			events := make([]trace.Event, 0, 256)
			for addr := uint64(0); addr < 1024; addr += wordSize {
				events = append(events, load(addr))
			}
			return events
		},
	}
}

// 2. Working Set Fits - 16 blocks, 16 lines, four passes
func workingSetFits() Benchmark {
	return Benchmark{
		Name:        "working_set_fits",
		Description: "Four passes over 16 blocks in a 4-set 4-way cache",
		Geometry:    cache.Geometry{SetBits: 2, Associativity: 4, BlockBits: 4},
		Events:      repeatedBlocks(16, 16, 4),
	}
}

// 3. Working Set Thrash - one block too many for set 0, LRU misses every time
func workingSetThrash() Benchmark {
	return Benchmark{
		Name:        "working_set_thrash",
		Description: "Four passes over 17 blocks in a 4-set 4-way cache",
		Geometry:    cache.Geometry{SetBits: 2, Associativity: 4, BlockBits: 4},
		Events:      repeatedBlocks(17, 16, 4),
	}
}

// 4. Conflict Stride - stride of one cache size keeps hitting the same set
func conflictStride() Benchmark {
	return Benchmark{
		Name:        "conflict_stride",
		Description: "Two passes over 8 blocks that all map to set 0 of a 2-way cache",
		Geometry:    cache.Geometry{SetBits: 4, Associativity: 2, BlockBits: 4},
		Events:      repeatedBlocks(8, 256, 2),
	}
}

// 5. Modify Words - read-modify-write over two words per block
func modifyWords() Benchmark {
	return Benchmark{
		Name:        "modify_words",
		Description: "Modify 32 consecutive 8-byte words in a 256B direct-mapped cache",
		Geometry:    cache.Geometry{SetBits: 4, Associativity: 1, BlockBits: 4},
		Events: func() []trace.Event {
			events := make([]trace.Event, 0, 32)
			for i := uint64(0); i < 32; i++ {
				events = append(events, modify(i*2*wordSize))
			}
			return events
		},
	}
}

// 6. Transpose - 32x32 int matrix through a 1KB direct-mapped cache with
// 32B blocks. A and B are 4KB apart so A[i][j] and B[i][j] share a set.
const (
	matrixDim   = 32
	matrixBase  = 0x10000
	matrixBytes = matrixDim * matrixDim * wordSize
	tileDim     = 8
)

var transposeGeometry = cache.Geometry{SetBits: 5, Associativity: 1, BlockBits: 5}

func elem(base uint64, row, col int) uint64 {
	return base + uint64(row*matrixDim+col)*wordSize
}

func transposeNaive() Benchmark {
	return Benchmark{
		Name:        "transpose_naive",
		Description: "Row-major 32x32 transpose, B written column by column",
		Geometry:    transposeGeometry,
		Events: func() []trace.Event {
			a, b := uint64(matrixBase), uint64(matrixBase+matrixBytes)
			events := make([]trace.Event, 0, 2*matrixDim*matrixDim)
			for i := 0; i < matrixDim; i++ {
				for j := 0; j < matrixDim; j++ {
					events = append(events, load(elem(a, i, j)), store(elem(b, j, i)))
				}
			}
			return events
		},
	}
}

func transposeBlocked() Benchmark {
	return Benchmark{
		Name:        "transpose_blocked",
		Description: "32x32 transpose in 8x8 tiles",
		Geometry:    transposeGeometry,
		Events: func() []trace.Event {
			a, b := uint64(matrixBase), uint64(matrixBase+matrixBytes)
			events := make([]trace.Event, 0, 2*matrixDim*matrixDim)
			for ti := 0; ti < matrixDim; ti += tileDim {
				for tj := 0; tj < matrixDim; tj += tileDim {
					for i := ti; i < ti+tileDim; i++ {
						for j := tj; j < tj+tileDim; j++ {
							events = append(events, load(elem(a, i, j)), store(elem(b, j, i)))
						}
					}
				}
			}
			return events
		},
	}
}

// repeatedBlocks loads n blocks spaced stride bytes apart, passes times.
func repeatedBlocks(n int, stride uint64, passes int) func() []trace.Event {
	return func() []trace.Event {
		events := make([]trace.Event, 0, n*passes)
		for p := 0; p < passes; p++ {
			for i := 0; i < n; i++ {
				events = append(events, load(uint64(i)*stride))
			}
		}
		return events
	}
}
