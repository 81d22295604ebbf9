// Package cache models a set-associative cache with LRU replacement.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// AddressBits is the width of the addresses the simulator decodes.
const AddressBits = 64

// MaxLines caps the number of lines a single simulator may allocate.
const MaxLines = 1 << 28

var (
	// ErrInvalidGeometry is returned when a geometry cannot describe a cache.
	ErrInvalidGeometry = errors.New("invalid cache geometry")

	// ErrCapacity is returned when a geometry needs more lines than the
	// simulator is willing to allocate.
	ErrCapacity = errors.New("cache storage too large")
)

// Geometry holds the shape of the cache. It is fixed before the first access
// and never changes afterwards.
type Geometry struct {
	// SetIndexBits (s) selects the set; there are 2^s sets.
	SetIndexBits uint `json:"set_bits"`

	// Associativity (E) is the number of lines per set.
	Associativity int `json:"associativity"`

	// BlockOffsetBits (b) addresses bytes within a block of 2^b bytes.
	BlockOffsetBits uint `json:"block_bits"`
}

// DefaultGeometry returns a small direct-mapped geometry with 16 sets of
// 16-byte blocks.
func DefaultGeometry() *Geometry {
	return &Geometry{
		SetIndexBits:    4,
		Associativity:   1,
		BlockOffsetBits: 4,
	}
}

// SetCount returns the number of sets (S = 2^s).
func (g Geometry) SetCount() uint64 {
	return 1 << g.SetIndexBits
}

// BlockSize returns the number of bytes in a block (B = 2^b).
func (g Geometry) BlockSize() uint64 {
	return 1 << g.BlockOffsetBits
}

// Lines returns the total number of lines in the cache.
func (g Geometry) Lines() uint64 {
	return g.SetCount() * uint64(g.Associativity)
}

// BlockAddress rebuilds the block-aligned address that decodes to the given
// set index and tag.
func (g Geometry) BlockAddress(setIndex, tag uint64) uint64 {
	return tag<<(g.SetIndexBits+g.BlockOffsetBits) | setIndex<<g.BlockOffsetBits
}

// String formats the geometry the way the command line takes it.
func (g Geometry) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", g.SetIndexBits, g.Associativity, g.BlockOffsetBits)
}

// Validate checks that the geometry describes a cache that can be simulated.
func (g Geometry) Validate() error {
	if g.Associativity < 1 {
		return fmt.Errorf("%w: associativity must be >= 1, got %d",
			ErrInvalidGeometry, g.Associativity)
	}
	if g.SetIndexBits+g.BlockOffsetBits > AddressBits {
		return fmt.Errorf("%w: set bits + block bits must be <= %d, got %d",
			ErrInvalidGeometry, AddressBits, g.SetIndexBits+g.BlockOffsetBits)
	}
	if g.SetIndexBits >= AddressBits ||
		g.SetCount() > MaxLines ||
		uint64(g.Associativity) > MaxLines ||
		g.Lines() > MaxLines {
		return fmt.Errorf("%w: %s needs more than %d lines",
			ErrCapacity, g, MaxLines)
	}
	return nil
}

// Clone returns a copy of the geometry.
func (g *Geometry) Clone() *Geometry {
	c := *g
	return &c
}

// LoadGeometry loads a Geometry from a JSON file. Fields missing from the file
// keep their DefaultGeometry values.
func LoadGeometry(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry file: %w", err)
	}

	g := DefaultGeometry()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to parse geometry: %w", err)
	}

	return g, nil
}

// Save writes the geometry to a JSON file.
func (g *Geometry) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize geometry: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write geometry file: %w", err)
	}

	return nil
}
