package orchestrator

// #region imports
import (
	"errors"

	"github.com/danielpatrickdp/attractor-machine/internal/encoding"
	"github.com/danielpatrickdp/attractor-machine/internal/gate"
	"github.com/danielpatrickdp/attractor-machine/internal/hopfield"
	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/network"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #endregion

// #region status

// Status is the orchestrator's own two-state machine.
type Status string

const (
	StatusReady   Status = "ready"
	StatusFaulted Status = "faulted"
)

// #endregion

// #region definition

// Definition is the symbolic description of a Moore machine.
type Definition struct {
	States      []string
	Relations   []string
	Transitions []minterm.Transition
	Outputs     map[string]string // state → output symbol
	Start       string            // defaults to States[0]
}

// #endregion

// #region config

// Config gathers the parameters of every stage.
type Config struct {
	Encoding encoding.Config
	Network  network.Config
	Gate     gate.GateConfig
}

// DefaultConfig returns the package defaults of every stage.
func DefaultConfig() Config {
	return Config{
		Encoding: encoding.DefaultConfig(),
		Network:  network.DefaultConfig(),
		Gate:     gate.DefaultGateConfig(),
	}
}

// #endregion

// #region results

// StepResult is the outcome of one Step. A failed recognition is reported
// here, never as an error.
type StepResult struct {
	Output     string // Moore output of State; empty when not recognized
	State      string
	Recognized bool
	Iterations int
	Failure    *RecognitionFailure
}

// RecognitionFailure describes a recalled vector that matched no state
// closely enough.
type RecognitionFailure struct {
	From      string
	Relation  string
	Raw       vector.Bipolar
	Nearest   string
	Distance  int
	Converged bool
	Reason    string
}

// Resolution is the pure outcome of recalling one probe.
type Resolution struct {
	Raw        vector.Bipolar
	Match      gate.Match
	Converged  bool
	Iterations int
	Decision   gate.GateDecision
	Trace      network.Trace
}

// Recognized reports whether the gate committed the match.
func (r Resolution) Recognized() bool { return r.Decision.Action == "commit" }

// Stats summarizes the machine and its activity since construction.
type Stats struct {
	States      int
	Relations   int
	Transitions int
	Dimension   int
	ExactBasis  int     // symbols drawn from the orthogonal basis
	MaxOverlap  float64 // worst |dot|/D between two symbols
	Layers      []LayerStats
	Status      Status
	Steps       int
	Recognized  int
	Rejected    int
	Resets      int
}

// LayerStats pairs a network layer with its memory's load.
type LayerStats struct {
	Name string
	hopfield.Info
}

// #endregion

// #region errors

var (
	// ErrFaulted is returned by Step until the machine is reset.
	ErrFaulted = errors.New("machine is faulted; reset to a start state")
	// ErrMissingOutput is returned when a state has no Moore output.
	ErrMissingOutput = errors.New("state has no output")
	// ErrLabelCollision is returned when a label names both a state and a relation.
	ErrLabelCollision = errors.New("label used as both state and relation")
	// ErrNoStates is returned for a definition without states or relations.
	ErrNoStates = errors.New("definition needs at least one state and one relation")
)

// #endregion
