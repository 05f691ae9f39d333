package orchestrator

// #region imports
import (
	"github.com/danielpatrickdp/attractor-machine/internal/gate"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #endregion

// #region classify

// labeled is one known state and its canonical vector.
type labeled struct {
	label string
	vec   vector.Bipolar
}

// classify returns the known state nearest to v by Hamming distance. Ties go
// to the state declared first. With no known states the match is empty.
func classify(v vector.Bipolar, known []labeled) gate.Match {
	best := gate.Match{Dimension: len(v), Distance: len(v) + 1}
	for _, k := range known {
		if d := vector.Hamming(v, k.vec); d < best.Distance {
			best.Label, best.Distance = k.label, d
		}
	}
	if best.Label == "" {
		best.Distance = 0
	}
	return best
}

// #endregion
