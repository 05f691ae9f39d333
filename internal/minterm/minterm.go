// Package minterm turns a transition relation into the supervised pattern set
// stored by the associative memory.
//
// The key of every pattern is the from-state vector followed by the relation
// vector; the target is the to-state vector. The scheme is fixed for build and
// recall alike.
package minterm

import (
	"fmt"

	"github.com/danielpatrickdp/attractor-machine/internal/encoding"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region build

// Build validates transitions and encodes one pattern per distinct record,
// in input order. Repeated identical records collapse to one pattern.
func Build(transitions []Transition, book Lookup) ([]Pattern, error) {
	targets := make(map[Address]string, len(transitions))
	patterns := make([]Pattern, 0, len(transitions))
	dim := -1

	for i, t := range transitions {
		addr := t.Address()
		if prev, ok := targets[addr]; ok {
			if prev != t.To {
				return nil, &ConflictingTransitionError{Address: addr, First: prev, Second: t.To}
			}
			continue
		}

		from, err := lookup(book, t.From, "from", i)
		if err != nil {
			return nil, err
		}
		rel, err := lookup(book, t.Relation, "relation", i)
		if err != nil {
			return nil, err
		}
		to, err := lookup(book, t.To, "to", i)
		if err != nil {
			return nil, err
		}
		if len(from) != len(to) {
			return nil, fmt.Errorf("transition %d: state vectors of length %d and %d: %w", i, len(from), len(to), ErrDimensionMismatch)
		}
		key := vector.Concat(from, rel)
		if dim >= 0 && len(key) != dim {
			return nil, fmt.Errorf("transition %d: key length %d, earlier keys %d: %w", i, len(key), dim, ErrDimensionMismatch)
		}
		dim = len(key)

		targets[addr] = t.To
		patterns = append(patterns, Pattern{Transition: t, Key: key, Target: to})
	}
	return patterns, nil
}

// #endregion build

// #region helpers

// Addresses returns the set of addresses covered by patterns.
func Addresses(patterns []Pattern) map[Address]string {
	out := make(map[Address]string, len(patterns))
	for _, p := range patterns {
		out[p.Transition.Address()] = p.Transition.To
	}
	return out
}

func lookup(book Lookup, label, role string, idx int) (vector.Bipolar, error) {
	v, ok := book.Vector(label)
	if !ok {
		return nil, fmt.Errorf("transition %d %s: %w", idx, role, &encoding.UnknownLabelError{Label: label})
	}
	return v, nil
}

// #endregion helpers
