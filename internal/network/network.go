// Package network composes associative memory layers into a directed graph
// evaluated in topological order.
//
// Each layer's input is the concatenation of slices of the external probe and
// of upstream layer outputs. Connections are acyclic unless marked delayed; a
// delayed connection reads the upstream output from the previous step and is
// ignored when ordering. A Network is immutable and shareable; state carried
// across steps for delayed connections lives in a Session.
package network

import (
	"fmt"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region network

type node struct {
	layer   Layer
	sources []Source
	decl    int
}

// Network is a validated, topologically ordered layer graph.
type Network struct {
	probeDim int
	nodes    map[string]*node
	order    []*node
	output   string
}

// ProbeDim returns the external probe length.
func (n *Network) ProbeDim() int { return n.probeDim }

// OutputDim returns the length of the network's result vector.
func (n *Network) OutputDim() int { return n.nodes[n.output].layer.Memory.OutputDim() }

// Order returns layer names in evaluation order.
func (n *Network) Order() []string {
	out := make([]string, len(n.order))
	for i, nd := range n.order {
		out[i] = nd.layer.Name
	}
	return out
}

// Layer returns the named layer.
func (n *Network) Layer(name string) (Layer, bool) {
	nd, ok := n.nodes[name]
	if !ok {
		return Layer{}, false
	}
	return nd.layer, true
}

// #endregion network

// #region compose

// Compose validates layers and their connectivity and fixes the evaluation
// order. The last layer in layers is the network output.
func Compose(probeDim int, layers []Layer, conn map[string][]Source) (*Network, error) {
	if probeDim <= 0 {
		return nil, fmt.Errorf("compose: probe dimension must be positive: %w", ErrInvalidGraph)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("compose: no layers: %w", ErrInvalidGraph)
	}

	nodes := make(map[string]*node, len(layers))
	decl := make([]*node, 0, len(layers))
	for i, l := range layers {
		switch {
		case l.Name == "" || l.Name == ProbeSource:
			return nil, fmt.Errorf("compose: layer %d has reserved or empty name %q: %w", i, l.Name, ErrInvalidGraph)
		case l.Memory == nil:
			return nil, fmt.Errorf("compose: layer %q has no memory: %w", l.Name, ErrInvalidGraph)
		case nodes[l.Name] != nil:
			return nil, fmt.Errorf("compose: duplicate layer %q: %w", l.Name, ErrInvalidGraph)
		}
		nd := &node{layer: l, decl: i}
		nodes[l.Name] = nd
		decl = append(decl, nd)
	}
	for name := range conn {
		if nodes[name] == nil {
			return nil, fmt.Errorf("compose: connectivity for unknown layer %q: %w", name, ErrInvalidGraph)
		}
	}

	for _, nd := range decl {
		srcs := conn[nd.layer.Name]
		if len(srcs) == 0 {
			return nil, fmt.Errorf("compose: layer %q has no inputs: %w", nd.layer.Name, ErrInvalidGraph)
		}
		width := 0
		resolved := make([]Source, len(srcs))
		for i, s := range srcs {
			var outDim int
			if s.Layer == ProbeSource {
				if s.Delayed {
					return nil, fmt.Errorf("compose: layer %q: the probe cannot be delayed: %w", nd.layer.Name, ErrInvalidGraph)
				}
				outDim = probeDim
			} else {
				up := nodes[s.Layer]
				if up == nil {
					return nil, fmt.Errorf("compose: layer %q reads unknown layer %q: %w", nd.layer.Name, s.Layer, ErrInvalidGraph)
				}
				outDim = up.layer.Memory.OutputDim()
			}
			if s.Hi == 0 {
				s.Hi = outDim
			}
			if s.Lo < 0 || s.Lo >= s.Hi || s.Hi > outDim {
				return nil, fmt.Errorf("compose: layer %q source %d slice [%d,%d) outside %q of length %d: %w",
					nd.layer.Name, i, s.Lo, s.Hi, s.Layer, outDim, ErrDimensionMismatch)
			}
			width += s.Hi - s.Lo
			resolved[i] = s
		}
		if in := nd.layer.Memory.InputDim(); width != in {
			return nil, fmt.Errorf("compose: layer %q receives %d components, memory expects %d: %w",
				nd.layer.Name, width, in, ErrDimensionMismatch)
		}
		nd.sources = resolved
	}

	order, err := topoOrder(decl)
	if err != nil {
		return nil, err
	}

	return &Network{
		probeDim: probeDim,
		nodes:    nodes,
		order:    order,
		output:   layers[len(layers)-1].Name,
	}, nil
}

// topoOrder runs Kahn's algorithm over non-delayed layer edges. Ready layers
// are taken in declaration order so the result is deterministic.
func topoOrder(decl []*node) ([]*node, error) {
	inDegree := make(map[*node]int, len(decl))
	downstream := make(map[string][]*node, len(decl))
	for _, nd := range decl {
		for _, s := range nd.sources {
			if s.Layer == ProbeSource || s.Delayed {
				continue
			}
			downstream[s.Layer] = append(downstream[s.Layer], nd)
			inDegree[nd]++
		}
	}

	order := make([]*node, 0, len(decl))
	done := make(map[*node]bool, len(decl))
	for len(order) < len(decl) {
		var next *node
		for _, nd := range decl {
			if !done[nd] && inDegree[nd] == 0 {
				next = nd
				break
			}
		}
		if next == nil {
			var cyclic []string
			for _, nd := range decl {
				if !done[nd] {
					cyclic = append(cyclic, nd.layer.Name)
				}
			}
			return nil, &CyclicConnectivityError{Layers: cyclic}
		}
		done[next] = true
		order = append(order, next)
		for _, d := range downstream[next.layer.Name] {
			inDegree[d]--
		}
	}
	return order, nil
}

// #endregion compose

// #region step

// Step evaluates every layer once for probe. Delayed sources read the tie
// vector. Step does not modify the network and is safe for concurrent use.
func (n *Network) Step(probe vector.Bipolar) (Trace, error) {
	return n.step(probe, nil)
}

func (n *Network) step(probe vector.Bipolar, previous map[string]vector.Bipolar) (Trace, error) {
	if len(probe) != n.probeDim {
		return Trace{}, fmt.Errorf("step: probe length %d, want %d: %w", len(probe), n.probeDim, ErrDimensionMismatch)
	}

	outputs := make(map[string]vector.Bipolar, len(n.order))
	trace := Trace{Converged: true, Layers: make([]LayerTrace, 0, len(n.order))}

	for _, nd := range n.order {
		parts := make([]vector.Bipolar, len(nd.sources))
		for i, s := range nd.sources {
			var src vector.Bipolar
			switch {
			case s.Layer == ProbeSource:
				src = probe
			case s.Delayed:
				src = previous[s.Layer]
				if src == nil {
					src = vector.Ones(n.nodes[s.Layer].layer.Memory.OutputDim())
				}
			default:
				src = outputs[s.Layer]
			}
			parts[i] = src[s.Lo:s.Hi]
		}

		res, err := nd.layer.Memory.Recall(vector.Concat(parts...))
		if err != nil {
			return Trace{}, fmt.Errorf("step: layer %q: %w", nd.layer.Name, err)
		}
		outputs[nd.layer.Name] = res.Vector
		trace.Layers = append(trace.Layers, LayerTrace{
			Name:       nd.layer.Name,
			Output:     res.Vector,
			Converged:  res.Converged,
			Iterations: res.Iterations,
		})
		if !res.Converged {
			trace.Converged = false
		}
	}

	trace.Output = outputs[n.output]
	return trace, nil
}

// #endregion step

// #region session

// Session carries layer outputs between steps so delayed sources see the
// previous step. A Session is not safe for concurrent use.
type Session struct {
	net      *Network
	previous map[string]vector.Bipolar
}

// NewSession starts a session whose delayed sources initially read the tie
// vector.
func (n *Network) NewSession() *Session {
	return &Session{net: n, previous: map[string]vector.Bipolar{}}
}

// Step evaluates the network and remembers every layer's output.
func (s *Session) Step(probe vector.Bipolar) (Trace, error) {
	tr, err := s.net.step(probe, s.previous)
	if err != nil {
		return Trace{}, err
	}
	for _, l := range tr.Layers {
		s.previous[l.Name] = l.Output
	}
	return tr, nil
}

// Reset forgets previous outputs.
func (s *Session) Reset() {
	s.previous = map[string]vector.Bipolar{}
}

// #endregion session
