package replay

import (
	"fmt"

	"github.com/danielpatrickdp/attractor-machine/internal/logging"
)

// #region journal-steps
// FromJournal rebuilds the scripted actions of a recorded run. Each recorded
// outcome becomes the expectation of its step, so replaying the result
// against the same machine must reproduce it.
func FromJournal(entries []logging.StepEntry) []Step {
	steps := make([]Step, 0, len(entries))
	for _, e := range entries {
		id := fmt.Sprintf("row-%d", e.ID)
		if e.Kind == logging.KindReset {
			steps = append(steps, Step{ID: id, Reset: e.To})
			continue
		}
		recognized := e.Recognized
		st := Step{ID: id, Relation: e.Relation, ExpectRecognized: &recognized}
		if recognized {
			st.ExpectOutput = e.Output
		}
		steps = append(steps, st)
	}
	return steps
}
// #endregion journal-steps
