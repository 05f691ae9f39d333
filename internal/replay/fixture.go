package replay

import (
	"encoding/json"
	"fmt"
	"os"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Start       string        `json:"start,omitempty"`
	Steps       []FixtureStep `json:"steps"`
}

// FixtureStep is one scripted action. Exactly one of Relation and Reset is set.
type FixtureStep struct {
	ID               string `json:"id,omitempty"`
	Relation         string `json:"relation,omitempty"`
	Reset            string `json:"reset,omitempty"`
	ExpectOutput     string `json:"expect_output,omitempty"`
	ExpectRecognized *bool  `json:"expect_recognized,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i, s := range f.Steps {
		if (s.Relation == "") == (s.Reset == "") {
			return nil, fmt.Errorf("fixture %s step %d: set exactly one of relation and reset", path, i)
		}
	}
	return &f, nil
}

// ToSteps converts the fixture into replay steps. A start state becomes a
// leading reset.
func (f *Fixture) ToSteps() []Step {
	steps := make([]Step, 0, len(f.Steps)+1)
	if f.Start != "" {
		steps = append(steps, Step{ID: "start", Reset: f.Start})
	}
	for i, s := range f.Steps {
		id := s.ID
		if id == "" {
			id = fmt.Sprintf("step-%d", i+1)
		}
		steps = append(steps, Step{
			ID:               id,
			Relation:         s.Relation,
			Reset:            s.Reset,
			ExpectOutput:     s.ExpectOutput,
			ExpectRecognized: s.ExpectRecognized,
		})
	}
	return steps
}

// #endregion fixture-loader
