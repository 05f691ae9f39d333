package network

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/attractor-machine/internal/hopfield"
	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// Layer names of the transition network.
const (
	LayerSuccessor = "successor"
	LayerState     = "state"
)

// BankName returns the name of the i-th minterm bank.
func BankName(i int) string { return fmt.Sprintf("minterm-%d", i) }

// #region config

// Config tunes the transition network.
type Config struct {
	Memory hopfield.Config
	// MintermLevel is the fraction of a key's squared norm a probe must reach
	// for that minterm to fire.
	MintermLevel float64
}

// DefaultConfig returns hopfield defaults with a 0.75 minterm level.
func DefaultConfig() Config {
	return Config{Memory: hopfield.DefaultConfig(), MintermLevel: 0.75}
}

// #endregion config

// #region build

// BuildTransitionNetwork assembles the Moore transition network:
//
//	probe ─┬─ minterm-0 ─┐
//	       ├─ minterm-1 ─┼─ successor ── state
//	       └─ ...       ─┘
//
// The minterm domain is split into banks no larger than the hetero capacity
// of the key dimension. Each bank reads the whole probe. The successor layer
// sums the targets of firing minterms, and the state layer is a recurrent
// cleanup memory holding every state plus the all-ones tie vector, which
// absorbs probes that matched no minterm.
func BuildTransitionNetwork(patterns []minterm.Pattern, states []vector.Bipolar, cfg Config) (*Network, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("transition network: %w", hopfield.ErrNoPatterns)
	}
	if len(states) == 0 {
		return nil, fmt.Errorf("transition network: no states: %w", hopfield.ErrNoPatterns)
	}

	keyDim, stateDim := len(patterns[0].Key), len(patterns[0].Target)
	for i, p := range patterns {
		if len(p.Key) != keyDim || len(p.Target) != stateDim {
			return nil, fmt.Errorf("transition network: pattern %d is %d→%d, want %d→%d: %w",
				i, len(p.Key), len(p.Target), keyDim, stateDim, ErrDimensionMismatch)
		}
	}
	for i, s := range states {
		if len(s) != stateDim {
			return nil, fmt.Errorf("transition network: state %d has length %d, want %d: %w",
				i, len(s), stateDim, ErrDimensionMismatch)
		}
	}

	bankSize := int(math.Floor(cfg.Memory.HeteroCapacity * float64(keyDim)))
	if bankSize < 1 {
		return nil, fmt.Errorf("transition network: hetero capacity %.3f leaves no room for minterms of length %d",
			cfg.Memory.HeteroCapacity, keyDim)
	}

	var (
		layers  []Layer
		conn    = map[string][]Source{}
		banks   []Source
		targets []vector.Bipolar
	)
	for lo, b := 0, 0; lo < len(patterns); lo, b = lo+bankSize, b+1 {
		hi := min(lo+bankSize, len(patterns))
		keys := make([]vector.Bipolar, 0, hi-lo)
		for _, p := range patterns[lo:hi] {
			keys = append(keys, p.Key)
			targets = append(targets, p.Target)
		}
		mem, err := hopfield.Detector(keys, cfg.MintermLevel, cfg.Memory)
		if err != nil {
			return nil, fmt.Errorf("transition network: bank %d: %w", b, err)
		}
		name := BankName(b)
		layers = append(layers, Layer{Name: name, Memory: mem})
		conn[name] = []Source{{Layer: ProbeSource}}
		banks = append(banks, Source{Layer: name})
	}

	successor, err := hopfield.Projector(targets, cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("transition network: successor: %w", err)
	}
	layers = append(layers, Layer{Name: LayerSuccessor, Memory: successor})
	conn[LayerSuccessor] = banks

	attractors := make([]hopfield.Pattern, 0, len(states)+1)
	for _, s := range states {
		attractors = append(attractors, hopfield.Pattern{Input: s, Target: s})
	}
	null := vector.Ones(stateDim)
	attractors = append(attractors, hopfield.Pattern{Input: null, Target: null})

	cleanup, err := hopfield.Store(attractors, cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("transition network: state: %w", err)
	}
	layers = append(layers, Layer{Name: LayerState, Memory: cleanup})
	conn[LayerState] = []Source{{Layer: LayerSuccessor}}

	return Compose(keyDim, layers, conn)
}

// #endregion build
