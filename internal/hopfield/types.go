package hopfield

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region update-mode

// UpdateMode selects how recall applies the sign update.
type UpdateMode string

const (
	// Synchronous updates every component from the same previous vector.
	Synchronous UpdateMode = "synchronous"
	// Asynchronous updates one component at a time in a seeded random order.
	Asynchronous UpdateMode = "asynchronous"
)

// ParseUpdateMode accepts "synchronous"/"sync" and "asynchronous"/"async".
// The empty string selects Synchronous.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch s {
	case "", "sync", string(Synchronous):
		return Synchronous, nil
	case "async", string(Asynchronous):
		return Asynchronous, nil
	}
	return "", fmt.Errorf("unknown update mode %q", s)
}

// #endregion update-mode

// #region config

// Config holds storage and recall parameters for a memory.
type Config struct {
	MaxIterations  int        // recall bound for recurrent memories (default 100)
	Mode           UpdateMode // synchronous or asynchronous recall
	Normalize      bool       // divide stored weights by the pattern count
	ZeroDiagonal   bool       // remove self-connections from auto-associative weights
	AutoCapacity   float64    // max patterns per dimension, auto-associative (default 0.14)
	HeteroCapacity float64    // max patterns per input dimension, hetero-associative (default 1.0)
	Seed           uint64     // seeds the asynchronous visiting order
}

// DefaultConfig returns synchronous recall with the classical 0.14·D bound.
func DefaultConfig() Config {
	return Config{
		MaxIterations:  100,
		Mode:           Synchronous,
		Normalize:      true,
		ZeroDiagonal:   true,
		AutoCapacity:   0.14,
		HeteroCapacity: 1.0,
		Seed:           1,
	}
}

func (c Config) validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations)
	}
	if c.Mode != Synchronous && c.Mode != Asynchronous {
		return fmt.Errorf("unknown update mode %q", c.Mode)
	}
	if c.AutoCapacity <= 0 || c.HeteroCapacity <= 0 {
		return fmt.Errorf("capacity factors must be positive (auto %.3f, hetero %.3f)", c.AutoCapacity, c.HeteroCapacity)
	}
	return nil
}

// #endregion config

// #region pattern

// Pattern is one (input, target) pair. Input == Target is auto-association.
type Pattern struct {
	Input  vector.Bipolar
	Target vector.Bipolar
}

// #endregion pattern

// #region result

// Result is the outcome of one recall.
type Result struct {
	Vector     vector.Bipolar
	Converged  bool
	Iterations int
	// Energies holds the probe's energy followed by one value per iteration.
	// Empty for feed-forward memories.
	Energies []float64
}

// Info summarizes a memory's load.
type Info struct {
	Patterns      int
	InputDim      int
	OutputDim     int
	Recurrent     bool
	CapacityRatio float64 // patterns / configured capacity bound
}

// #endregion result

// #region errors

var (
	// ErrNoPatterns is returned when storing an empty pattern set.
	ErrNoPatterns = errors.New("no patterns")
	// ErrShape is returned for vectors whose length does not fit the memory.
	ErrShape = errors.New("shape mismatch")
)

// CapacityExceededError reports a pattern set larger than the configured
// capacity bound of the memory.
type CapacityExceededError struct {
	Patterns  int
	Dimension int
	Limit     float64
	Auto      bool
}

func (e *CapacityExceededError) Error() string {
	kind := "hetero-associative"
	if e.Auto {
		kind = "auto-associative"
	}
	return fmt.Sprintf("capacity exceeded: %d patterns in %s memory of dimension %d (limit %.2f)",
		e.Patterns, kind, e.Dimension, e.Limit)
}

// #endregion errors
