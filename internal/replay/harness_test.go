package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
)

// helper: the three-state machine used by the fixtures.
func threeState(t *testing.T, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	o, err := orchestrator.New(orchestrator.Definition{
		States:    []string{"S0", "S1", "S2"},
		Relations: []string{"LIKES", "FATHER_OF", "BULLIES"},
		Transitions: []minterm.Transition{
			{From: "S0", Relation: "LIKES", To: "S1"},
			{From: "S1", Relation: "FATHER_OF", To: "S2"},
			{From: "S2", Relation: "BULLIES", To: "S0"},
		},
		Outputs: map[string]string{"S0": "A", "S1": "B", "S2": "C"},
	}, orchestrator.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func boolPtr(b bool) *bool { return &b }

// #region fixture-tests

// TestFixture_ThreeState is the primary regression test: any change to the
// encoding, memory, or gate that alters recall shows up as a mismatch.
func TestFixture_ThreeState(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "three_state.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	results := Replay(threeState(t), f.ToSteps())
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Mismatch != "" {
			t.Errorf("%s: %s", r.ID, r.Mismatch)
		}
	}

	s := Summarize(results)
	want := ReplaySummary{Total: 6, Recognized: 3, Rejected: 1, Resets: 2}
	if s != want {
		t.Fatalf("summary: got %+v, want %+v", s, want)
	}
	if results[2].State != "S2" || results[2].Output != "C" {
		t.Fatalf("unexpected result %+v", results[2])
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "missing.json")); err == nil {
		t.Fatal("expected read error")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"steps": [{"relation": "LIKES", "reset": "S0"}]}`), 0o644)
	if _, err := LoadFixture(bad); err == nil {
		t.Fatal("expected error for a step with both relation and reset")
	}

	garbled := filepath.Join(dir, "garbled.json")
	os.WriteFile(garbled, []byte(`{"steps": [`), 0o644)
	if _, err := LoadFixture(garbled); err == nil {
		t.Fatal("expected parse error")
	}
}

// #endregion fixture-tests

// #region replay-tests

func TestReplay_FaultedMachineErrors(t *testing.T) {
	steps := []Step{
		{ID: "1", Relation: "BULLIES", ExpectRecognized: boolPtr(false)},
		{ID: "2", Relation: "LIKES"},
		{ID: "3", Reset: "S0"},
		{ID: "4", Relation: "LIKES", ExpectOutput: "B"},
	}
	results := Replay(threeState(t), steps)

	if results[0].Action != "reject" || results[0].Mismatch != "" {
		t.Fatalf("step 1: %+v", results[0])
	}
	if results[1].Action != "error" || results[1].Mismatch == "" {
		t.Fatalf("stepping a faulted machine should be an unexpected error: %+v", results[1])
	}
	if results[3].Action != "commit" || results[3].Mismatch != "" {
		t.Fatalf("step 4: %+v", results[3])
	}

	s := Summarize(results)
	if s.Errors != 1 || s.Mismatches != 1 || s.Resets != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestReplay_Mismatches(t *testing.T) {
	steps := []Step{
		{ID: "wrong-output", Relation: "LIKES", ExpectOutput: "C"},
		{ID: "wrong-recognition", Relation: "FATHER_OF", ExpectRecognized: boolPtr(false)},
		{ID: "unknown-reset", Reset: "S9"},
	}
	results := Replay(threeState(t), steps)
	for _, r := range results {
		if r.Mismatch == "" {
			t.Errorf("%s: expected a mismatch, got %+v", r.ID, r)
		}
	}
}

func TestToSteps(t *testing.T) {
	f := Fixture{Start: "S1", Steps: []FixtureStep{{Relation: "FATHER_OF"}, {ID: "x", Reset: "S0"}}}
	steps := f.ToSteps()
	if len(steps) != 3 || steps[0].Reset != "S1" || steps[1].ID != "step-1" || steps[2].ID != "x" {
		t.Fatalf("unexpected steps %+v", steps)
	}
}

// #endregion replay-tests
