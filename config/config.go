// Package config loads and validates simulator configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/csim/cache"
)

const (
	// EngineNative selects the built-in timestamp LRU engine.
	EngineNative = "native"
	// EngineAkita selects the Akita cache directory engine.
	EngineAkita = "akita"

	// DefaultResultsPath is where the summary counts are written for graders.
	DefaultResultsPath = ".csim_results"

	// MaxSetBits bounds the number of sets the simulator will allocate.
	MaxSetBits = 30
	// AddressBits is the width of a trace address.
	AddressBits = 64
)

var (
	// ErrInvalidGeometry is returned when s, E or b is out of range.
	ErrInvalidGeometry = errors.New("invalid cache geometry")
	// ErrMissingTrace is returned when no trace file is configured.
	ErrMissingTrace = errors.New("missing trace file")
	// ErrUnknownEngine is returned for engine names other than native and akita.
	ErrUnknownEngine = errors.New("unknown engine")
)

// Config holds everything a simulation run needs.
type Config struct {
	// SetBits is the number of set index bits (s). Required, > 0.
	SetBits int `json:"set_bits"`

	// Associativity is the number of lines per set (E). Required, > 0.
	Associativity int `json:"associativity"`

	// BlockBits is the number of block offset bits (b). Required, > 0.
	BlockBits int `json:"block_bits"`

	// TracePath is the valgrind trace to replay. Required.
	TracePath string `json:"trace"`

	// Verbose prints every replayed event with its outcomes.
	Verbose bool `json:"verbose"`

	// Lenient skips malformed trace lines instead of failing.
	Lenient bool `json:"lenient"`

	// Engine is the cache model, "native" or "akita". Default: native.
	Engine string `json:"engine"`

	// ResultsPath receives "hits misses evictions". Empty disables it.
	// Default: .csim_results.
	ResultsPath string `json:"results_path"`

	// Record enables per-access recording into a SQLite database.
	Record bool `json:"record"`

	// RecordPath is the database file. Empty picks a unique name.
	RecordPath string `json:"record_path"`
}

// Default returns a Config with no geometry and no trace.
func Default() *Config {
	return &Config{
		Engine:      EngineNative,
		ResultsPath: DefaultResultsPath,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the geometry is usable, a trace is given and the
// engine is known.
func (c *Config) Validate() error {
	if c.SetBits <= 0 {
		return fmt.Errorf("%w: set_bits must be > 0", ErrInvalidGeometry)
	}
	if c.Associativity <= 0 {
		return fmt.Errorf("%w: associativity must be > 0", ErrInvalidGeometry)
	}
	if c.BlockBits <= 0 {
		return fmt.Errorf("%w: block_bits must be > 0", ErrInvalidGeometry)
	}
	if c.SetBits > MaxSetBits {
		return fmt.Errorf("%w: set_bits must be <= %d", ErrInvalidGeometry, MaxSetBits)
	}
	if c.SetBits+c.BlockBits > AddressBits {
		return fmt.Errorf("%w: set_bits + block_bits must be <= %d",
			ErrInvalidGeometry, AddressBits)
	}
	if c.TracePath == "" {
		return ErrMissingTrace
	}
	if c.Engine != EngineNative && c.Engine != EngineAkita {
		return fmt.Errorf("%w: %q", ErrUnknownEngine, c.Engine)
	}

	return nil
}

// Geometry returns the cache geometry described by the Config.
func (c *Config) Geometry() cache.Geometry {
	return cache.Geometry{
		SetBits:       c.SetBits,
		Associativity: c.Associativity,
		BlockBits:     c.BlockBits,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
