package gate

import "fmt"

// #region gate
// Gate decides whether a recalled vector is close enough to a known state to
// be committed as the machine's next state.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Config returns the gate's thresholds.
func (g *Gate) Config() GateConfig { return g.config }

// Evaluate checks every veto and commits only when none apply.
func (g *Gate) Evaluate(match Match, converged bool) GateDecision {
	var vetoes []VetoSignal

	if match.Label == "" {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoEmptyCodebook,
			Reason: "no known states to compare against",
		})
	}

	if g.config.RequireConvergence && !converged {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNotConverged,
			Reason: "recall did not reach a fixed point",
		})
	}

	if match.Label != "" && match.Fraction() > g.config.MaxDistance {
		vetoes = append(vetoes, VetoSignal{
			Type: VetoDistance,
			Reason: fmt.Sprintf("nearest state %s at distance %d/%d exceeds %.4f",
				match.Label, match.Distance, match.Dimension, g.config.MaxDistance),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			SoftScore:   0,
		}
	}

	score := match.Similarity()
	return GateDecision{
		Action:    "commit",
		Reason:    fmt.Sprintf("passed gate: %s similarity=%.4f", match.Label, score),
		SoftScore: score,
	}
}
// #endregion gate
