// Package replay runs scripted scenarios against a machine and checks the
// outputs it produces.
package replay

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
)

// #region types
// Stepper is the part of a machine a scenario drives.
type Stepper interface {
	Step(relation string) (orchestrator.StepResult, error)
	Reset(label string) error
}

// Step is one scripted action with optional expectations.
type Step struct {
	ID               string
	Relation         string
	Reset            string
	ExpectOutput     string
	ExpectRecognized *bool
}

// ReplayResult captures the outcome of one step.
type ReplayResult struct {
	ID         string
	Action     string // "commit" | "reject" | "reset" | "error"
	Output     string
	State      string
	Recognized bool
	Reason     string
	Mismatch   string // empty when every expectation held
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Recognized int
	Rejected   int
	Resets     int
	Errors     int
	Mismatches int
}
// #endregion types

// #region replay
// Replay applies steps in order. Errors and mismatches are recorded and the
// run continues.
func Replay(s Stepper, steps []Step) []ReplayResult {
	results := make([]ReplayResult, 0, len(steps))
	for _, st := range steps {
		var r ReplayResult
		if st.Reset != "" {
			r = ReplayResult{ID: st.ID, Action: "reset", State: st.Reset, Recognized: true}
			if err := s.Reset(st.Reset); err != nil {
				r = ReplayResult{ID: st.ID, Action: "error", Reason: err.Error()}
			}
		} else {
			res, err := s.Step(st.Relation)
			switch {
			case err != nil:
				r = ReplayResult{ID: st.ID, Action: "error", Reason: err.Error()}
			case res.Recognized:
				r = ReplayResult{ID: st.ID, Action: "commit", Output: res.Output, State: res.State, Recognized: true}
			default:
				r = ReplayResult{ID: st.ID, Action: "reject"}
				if res.Failure != nil {
					r.Reason = res.Failure.Reason
				}
			}
		}
		r.Mismatch = check(st, r)
		results = append(results, r)
	}
	return results
}

func check(st Step, r ReplayResult) string {
	var problems []string
	if st.ExpectRecognized != nil && *st.ExpectRecognized != r.Recognized {
		problems = append(problems, fmt.Sprintf("recognized=%v, want %v", r.Recognized, *st.ExpectRecognized))
	}
	if st.ExpectOutput != "" && st.ExpectOutput != r.Output {
		problems = append(problems, fmt.Sprintf("output=%q, want %q", r.Output, st.ExpectOutput))
	}
	if r.Action == "error" && st.ExpectRecognized == nil && st.ExpectOutput == "" {
		problems = append(problems, "unexpected error: "+r.Reason)
	}
	return strings.Join(problems, "; ")
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results)}
	for _, r := range results {
		switch r.Action {
		case "commit":
			s.Recognized++
		case "reject":
			s.Rejected++
		case "reset":
			s.Resets++
		case "error":
			s.Errors++
		}
		if r.Mismatch != "" {
			s.Mismatches++
		}
	}
	return s
}
// #endregion replay
