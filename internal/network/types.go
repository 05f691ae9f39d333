package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/attractor-machine/internal/hopfield"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// ProbeSource names the external probe in connectivity declarations. No layer
// may use it as its name.
const ProbeSource = "probe"

// #region layer

// Layer is a named memory node.
type Layer struct {
	Name   string
	Memory *hopfield.Memory
}

// Source selects a slice [Lo, Hi) of an upstream output. Hi == 0 means the
// end of the output. Delayed sources read the output the upstream layer
// produced on the previous step, which is what makes feedback legal.
type Source struct {
	Layer   string
	Lo, Hi  int
	Delayed bool
}

// #endregion layer

// #region trace

// LayerTrace records one layer's recall within a step.
type LayerTrace struct {
	Name       string
	Output     vector.Bipolar
	Converged  bool
	Iterations int
}

// Trace is the outcome of one network step.
type Trace struct {
	Output    vector.Bipolar // output of the last declared layer
	Converged bool           // every layer converged
	Layers    []LayerTrace   // in evaluation order
}

// Layer returns the trace of the named layer.
func (t Trace) Layer(name string) (LayerTrace, bool) {
	for _, l := range t.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return LayerTrace{}, false
}

// #endregion trace

// #region errors

var (
	// ErrDimensionMismatch is returned when a layer's declared inputs do not
	// add up to its memory's input dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidGraph covers naming and reference errors in a composition.
	ErrInvalidGraph = errors.New("invalid layer graph")
)

// CyclicConnectivityError reports a cycle through non-delayed connections.
type CyclicConnectivityError struct {
	Layers []string
}

func (e *CyclicConnectivityError) Error() string {
	return fmt.Sprintf("cyclic connectivity among layers [%s]; mark a feedback source as delayed",
		strings.Join(e.Layers, ", "))
}

// #endregion errors
