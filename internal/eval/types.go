package eval

import (
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region eval-config
// EvalConfig holds the noise sweep parameters.
type EvalConfig struct {
	Levels         []float64 // fraction of probe components flipped
	Trials         int       // noisy copies of every case per level
	Seed           uint64
	Workers        int     // concurrent tasks
	MinSuccessRate float64 // a level passes at or above this rate
}

// DefaultEvalConfig sweeps 0%, 2% and 5% noise.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Levels:         []float64{0, 0.02, 0.05},
		Trials:         40,
		Seed:           7,
		Workers:        4,
		MinSuccessRate: 0.95,
	}
}
// #endregion eval-config

// #region recaller
// Recaller resolves a probe without changing any machine state.
type Recaller interface {
	Resolve(probe vector.Bipolar) (orchestrator.Resolution, error)
}

// Prober builds the probe of a (state, relation) pair.
type Prober interface {
	Probe(from, relation string) (vector.Bipolar, error)
}

// Case is one probe and the state it should resolve to.
type Case struct {
	Name  string
	Probe vector.Bipolar
	Want  string
}
// #endregion recaller

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// LevelResult aggregates one noise level.
type LevelResult struct {
	Level     float64
	Flips     int // components flipped per probe
	Attempts  int
	Successes int
	Rate      float64
	Pass      bool
}
// #endregion eval-metric

// #region eval-result
// EvalResult is the output of a sweep.
type EvalResult struct {
	Passed  bool
	Levels  []LevelResult
	Metrics []EvalMetric
	Reason  string
}
// #endregion eval-result
