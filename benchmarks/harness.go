// Package benchmarks provides synthetic cache workloads and a harness that
// replays them through the cache engines.
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/csim/cache"
	"github.com/sarchlab/csim/config"
	"github.com/sarchlab/csim/replay"
	"github.com/sarchlab/csim/trace"
)

// BenchmarkResult holds the outcome of replaying one workload on one engine.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Engine is the cache model that ran the workload
	Engine string `json:"engine"`

	// Geometry is the simulated cache shape
	SetBits       int `json:"set_bits"`
	Associativity int `json:"associativity"`
	BlockBits     int `json:"block_bits"`

	// Events is the number of trace events replayed
	Events uint64 `json:"events"`

	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`

	// WallTime is the actual time taken to replay the workload
	WallTime time.Duration `json:"wall_time_ns"`
}

// Stats returns the counters of the result.
func (r BenchmarkResult) Stats() cache.Statistics {
	return cache.Statistics{Hits: r.Hits, Misses: r.Misses, Evictions: r.Evictions}
}

// Benchmark defines a single synthetic workload.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Geometry is the cache the workload is designed for
	Geometry cache.Geometry

	// Events generates the trace to replay
	Events func() []trace.Event
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Engines lists the cache models every benchmark runs on.
	Engines []string

	// Verbose enables per-benchmark progress output
	Verbose bool

	// Output is where results are written (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Engines: []string{config.EngineNative, config.EngineAkita},
		Verbose: false,
		Output:  os.Stdout,
	}
}

// Harness runs benchmarks and collects results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: make([]Benchmark, 0),
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(bs []Benchmark) {
	h.benchmarks = append(h.benchmarks, bs...)
}

// RunAll runs every benchmark on every configured engine. It stops early
// when ctx is cancelled and returns the results gathered so far.
func (h *Harness) RunAll(ctx context.Context) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks)*len(h.config.Engines))

	for _, b := range h.benchmarks {
		events := b.Events()

		for _, engine := range h.config.Engines {
			if h.config.Verbose {
				_, _ = fmt.Fprintf(h.config.Output, "Running %s on %s...\n", b.Name, engine)
			}

			result, err := h.runBenchmark(ctx, b, engine, events)
			if err != nil {
				return results, fmt.Errorf("benchmark %s on %s: %w", b.Name, engine, err)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

func (h *Harness) runBenchmark(
	ctx context.Context,
	b Benchmark,
	engine string,
	events []trace.Event,
) (BenchmarkResult, error) {
	accessor, err := NewAccessor(engine, b.Geometry)
	if err != nil {
		return BenchmarkResult{}, err
	}

	replayer := replay.New(accessor)

	start := time.Now()
	stats, err := replayer.Run(ctx, &sliceSource{events: events})
	wallTime := time.Since(start)
	if err != nil {
		return BenchmarkResult{}, err
	}

	return BenchmarkResult{
		Name:          b.Name,
		Description:   b.Description,
		Engine:        engine,
		SetBits:       b.Geometry.SetBits,
		Associativity: b.Geometry.Associativity,
		BlockBits:     b.Geometry.BlockBits,
		Events:        replayer.Events(),
		Hits:          stats.Hits,
		Misses:        stats.Misses,
		Evictions:     stats.Evictions,
		HitRate:       stats.HitRate(),
		WallTime:      wallTime,
	}, nil
}

// NewAccessor builds the named cache engine.
func NewAccessor(engine string, geometry cache.Geometry) (replay.Accessor, error) {
	switch engine {
	case config.EngineNative:
		return cache.NewEngine(geometry), nil
	case config.EngineAkita:
		return cache.NewDirectoryEngine(geometry), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownEngine, engine)
	}
}

type sliceSource struct {
	events []trace.Event
	next   int
}

func (s *sliceSource) Next() (trace.Event, error) {
	if s.next >= len(s.events) {
		return trace.Event{}, io.EOF
	}

	e := s.events[s.next]
	s.next++

	return e, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "")
	_, _ = fmt.Fprintln(h.config.Output, "=== Cache Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s [%s]\n", r.Name, r.Engine)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Geometry: s=%d E=%d b=%d\n",
			r.SetBits, r.Associativity, r.BlockBits)
		_, _ = fmt.Fprintf(h.config.Output, "  Events: %d\n", r.Events)
		_, _ = fmt.Fprintf(h.config.Output, "  hits:%d misses:%d evictions:%d\n",
			r.Hits, r.Misses, r.Evictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Hit Rate: %.2f%%\n", r.HitRate*100)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,engine,s,E,b,events,hits,misses,evictions,hit_rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%d,%d,%d,%d,%d,%.4f\n",
			r.Name,
			r.Engine,
			r.SetBits,
			r.Associativity,
			r.BlockBits,
			r.Events,
			r.Hits,
			r.Misses,
			r.Evictions,
			r.HitRate,
		)
	}
}

// BenchmarkReport is the JSON document written by PrintJSON.
type BenchmarkReport struct {
	Metadata ReportMetadata    `json:"metadata"`
	Results  []BenchmarkResult `json:"results"`
	Summary  ReportSummary     `json:"summary"`
}

// ReportMetadata describes the run that produced a report.
type ReportMetadata struct {
	Timestamp string   `json:"timestamp"`
	Engines   []string `json:"engines"`
}

// ReportSummary aggregates all results of a report.
type ReportSummary struct {
	TotalBenchmarks int `json:"total_benchmarks"`

	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	var total cache.Statistics
	var totalWallTime time.Duration
	for _, r := range results {
		total = total.Add(r.Stats())
		totalWallTime += r.WallTime
	}

	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Engines:   h.config.Engines,
		},
		Results: results,
		Summary: ReportSummary{
			TotalBenchmarks: len(results),
			Hits:            total.Hits,
			Misses:          total.Misses,
			Evictions:       total.Evictions,
			TotalWallTime:   totalWallTime,
		},
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
