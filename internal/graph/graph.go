// Package graph analyses the transition diagram of a machine before it is
// encoded: which states a walk from the start can reach, and which
// (state, relation) pairs have no transition and would fault at runtime.
package graph

import (
	"fmt"

	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
)

// #region types
// Edge is one labelled transition.
type Edge struct {
	From     string
	Relation string
	To       string
}

// Pair is a (state, relation) input with no transition.
type Pair struct {
	From     string
	Relation string
}

// WalkResult holds the states reached by a walk in visiting order.
type WalkResult struct {
	States []string
	Depths []int // steps from the entry state
}

// Diagram is the directed multigraph of a transition table.
type Diagram struct {
	states    []string
	relations []string
	out       map[string][]Edge
}
// #endregion types

// #region constructor
// New indexes transitions by source state. Every endpoint and relation must
// be declared.
func New(states, relations []string, transitions []minterm.Transition) (*Diagram, error) {
	isState := make(map[string]bool, len(states))
	for _, s := range states {
		isState[s] = true
	}
	isRel := make(map[string]bool, len(relations))
	for _, r := range relations {
		isRel[r] = true
	}

	d := &Diagram{states: states, relations: relations, out: make(map[string][]Edge, len(states))}
	for _, t := range transitions {
		if !isState[t.From] || !isState[t.To] {
			return nil, fmt.Errorf("transition %s -%s-> %s: undeclared state", t.From, t.Relation, t.To)
		}
		if !isRel[t.Relation] {
			return nil, fmt.Errorf("transition %s -%s-> %s: undeclared relation", t.From, t.Relation, t.To)
		}
		d.out[t.From] = append(d.out[t.From], Edge{From: t.From, Relation: t.Relation, To: t.To})
	}
	return d, nil
}
// #endregion constructor

// #region neighbors
// Neighbors returns the outgoing edges of state in declaration order.
func (d *Diagram) Neighbors(state string) []Edge {
	return append([]Edge(nil), d.out[state]...)
}
// #endregion neighbors

// #region walk
// Walk performs a breadth-first walk from entry, up to maxDepth steps.
// A maxDepth of zero or less walks the whole component.
func (d *Diagram) Walk(entry string, maxDepth int) WalkResult {
	if maxDepth <= 0 {
		maxDepth = len(d.states)
	}

	result := WalkResult{States: []string{entry}, Depths: []int{0}}
	visited := map[string]bool{entry: true}

	type queueItem struct {
		state string
		depth int
	}
	queue := []queueItem{{entry, 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= maxDepth {
			continue
		}
		for _, e := range d.out[current.state] {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			result.States = append(result.States, e.To)
			result.Depths = append(result.Depths, current.depth+1)
			queue = append(queue, queueItem{e.To, current.depth + 1})
		}
	}
	return result
}

// Unreachable lists the declared states a walk from entry never visits.
func (d *Diagram) Unreachable(entry string) []string {
	seen := make(map[string]bool, len(d.states))
	for _, s := range d.Walk(entry, 0).States {
		seen[s] = true
	}
	var out []string
	for _, s := range d.states {
		if !seen[s] {
			out = append(out, s)
		}
	}
	return out
}
// #endregion walk

// #region undefined
// Undefined lists every (state, relation) pair without a transition, in
// declaration order. Stepping the machine with one of these faults it.
func (d *Diagram) Undefined() []Pair {
	var out []Pair
	for _, s := range d.states {
		defined := make(map[string]bool, len(d.out[s]))
		for _, e := range d.out[s] {
			defined[e.Relation] = true
		}
		for _, r := range d.relations {
			if !defined[r] {
				out = append(out, Pair{From: s, Relation: r})
			}
		}
	}
	return out
}
// #endregion undefined
