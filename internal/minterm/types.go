package minterm

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region transition

// Transition is one record of the Moore machine's transition relation.
type Transition struct {
	From     string `json:"from" yaml:"from"`
	Relation string `json:"relation" yaml:"relation"`
	To       string `json:"to" yaml:"to"`
}

// Address is the (current state, input symbol) pair a transition is keyed on.
type Address struct {
	From     string
	Relation string
}

// Address returns the key of t.
func (t Transition) Address() Address {
	return Address{From: t.From, Relation: t.Relation}
}

func (a Address) String() string {
	return fmt.Sprintf("(%s, %s)", a.From, a.Relation)
}

// #endregion transition

// #region pattern

// Pattern binds a minterm key (from-state vector followed by relation vector)
// to the successor state vector.
type Pattern struct {
	Transition Transition
	Key        vector.Bipolar
	Target     vector.Bipolar
}

// Lookup resolves labels to symbol vectors.
type Lookup interface {
	Vector(label string) (vector.Bipolar, bool)
}

// #endregion pattern

// #region errors

// ErrDimensionMismatch is returned when symbol vectors disagree in length.
var ErrDimensionMismatch = errors.New("dimension mismatch")

// ConflictingTransitionError reports two records with the same address and
// different targets.
type ConflictingTransitionError struct {
	Address Address
	First   string
	Second  string
}

func (e *ConflictingTransitionError) Error() string {
	return fmt.Sprintf("conflicting transitions for %s: %q and %q", e.Address, e.First, e.Second)
}

// #endregion errors
