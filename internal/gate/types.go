package gate

// #region veto-type
// VetoType enumerates the reasons a recall is refused.
type VetoType string

const (
	VetoDistance      VetoType = "distance_exceeded"
	VetoNotConverged  VetoType = "not_converged"
	VetoEmptyCodebook VetoType = "empty_codebook"
)
// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}
// #endregion veto-signal

// #region match
// Match is the nearest known state to a recalled vector.
type Match struct {
	Label     string // empty when there was nothing to compare against
	Distance  int    // Hamming distance to Label's vector
	Dimension int
}

// Fraction returns Distance as a fraction of the dimension.
func (m Match) Fraction() float64 {
	if m.Dimension == 0 {
		return 1
	}
	return float64(m.Distance) / float64(m.Dimension)
}

// Similarity returns the cosine similarity of two bipolar vectors at this
// distance: 1 - 2·Distance/Dimension.
func (m Match) Similarity() float64 {
	return 1 - 2*m.Fraction()
}
// #endregion match

// #region gate-config
// GateConfig holds thresholds for gate decisions.
type GateConfig struct {
	MaxDistance        float64 // max Hamming distance as a fraction of the dimension
	RequireConvergence bool    // reject recalls that hit the iteration bound
}

// DefaultGateConfig accepts matches within 12.5% of the dimension, the same
// bound as a cosine similarity of 0.75.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MaxDistance:        0.125,
		RequireConvergence: true,
	}
}

// MaxDistanceForSimilarity converts a cosine similarity threshold into the
// equivalent Hamming fraction.
func MaxDistanceForSimilarity(similarity float64) float64 {
	return (1 - similarity) / 2
}
// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "commit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	SoftScore   float64      // similarity of the match, logged only
}
// #endregion gate-decision
