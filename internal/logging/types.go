package logging

import "time"

// #region entry-kind
// Kind distinguishes journal rows.
type Kind string

const (
	KindStep  Kind = "step"
	KindReset Kind = "reset"
)
// #endregion entry-kind

// #region step-entry
// StepEntry is a single row in the step_journal table.
type StepEntry struct {
	ID         int64
	RunID      string
	Kind       Kind
	From       string
	Relation   string // empty for resets
	To         string // recognized successor, or the reset target
	Output     string // Moore output of To
	Recognized bool
	Nearest    string // nearest state on a failed recognition
	Distance   int
	Iterations int
	VersionID  string // register version committed by this row
	Decision   string // "commit" | "reject"
	Reason     string
	GateJSON   string // serialized GateRecord
	CreatedAt  time.Time
}
// #endregion step-entry

// #region gate-record
// GateRecord captures the gate's inputs and thresholds for a single step.
// Serialized as JSON into step_journal.gate_json so a rejected step can be
// explained after the fact.
type GateRecord struct {
	Raw         string  `json:"raw"` // recalled vector in +- form
	Nearest     string  `json:"nearest"`
	Distance    int     `json:"distance"`
	Dimension   int     `json:"dimension"`
	Converged   bool    `json:"converged"`
	MaxDistance float64 `json:"max_distance"`

	GateAction    string   `json:"gate_action"`
	GateSoftScore float64  `json:"gate_soft_score"`
	GateVetoed    bool     `json:"gate_vetoed"`
	GateVetoes    []string `json:"gate_vetoes,omitempty"`
	GateReason    string   `json:"gate_reason"`
}
// #endregion gate-record

// #region run-summary
// RunSummary aggregates the rows of one run.
type RunSummary struct {
	RunID      string
	Steps      int
	Recognized int
	Rejected   int
	Resets     int
	FirstAt    time.Time
	LastAt     time.Time
}
// #endregion run-summary
