package encoding

import (
	"errors"
	"fmt"
)

// #region config

// Config controls symbol vector generation.
type Config struct {
	Dimension   int     // length D of every symbol vector
	Seed        uint64  // seed for the random extension beyond the exact basis
	MaxOverlap  float64 // max |dot|/D allowed between a random vector and any earlier one
	MaxAttempts int     // draws per random vector before giving up
}

// DefaultConfig returns a 64-dimensional configuration. 64 admits 63 exactly
// orthogonal balanced vectors.
func DefaultConfig() Config {
	return Config{
		Dimension:   64,
		Seed:        1,
		MaxOverlap:  0.25,
		MaxAttempts: 10000,
	}
}

// #endregion config

// #region errors

// ErrInvalidLabels is returned for empty, blank, or duplicate labels.
var ErrInvalidLabels = errors.New("invalid labels")

// CapacityError reports that the requested labels do not fit in the dimension
// under the configured overlap bound.
type CapacityError struct {
	Labels    int
	Dimension int
	Exact     int // how many exactly orthogonal vectors the dimension admits
	Generated int // how many vectors were produced before failing
	Reason    string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity: %d labels in dimension %d (exact basis %d, generated %d): %s",
		e.Labels, e.Dimension, e.Exact, e.Generated, e.Reason)
}

// UnknownLabelError reports a label that is not part of a codebook.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("unknown label %q", e.Label)
}

// #endregion errors
