package logging

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	j, err := NewJournal(db)
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}
// #endregion helpers

// #region log-step-tests
func TestLogStep_Success(t *testing.T) {
	j := setupJournal(t)

	rec := GateRecord{Raw: "+-+-", Nearest: "S1", Distance: 0, Dimension: 4, Converged: true, GateAction: "commit"}
	gateJSON, _ := json.Marshal(rec)

	id, err := j.LogStep(StepEntry{
		RunID:      "run-1",
		From:       "S0",
		Relation:   "LIKES",
		To:         "S1",
		Output:     "B",
		Recognized: true,
		Iterations: 1,
		VersionID:  "v2",
		Decision:   "commit",
		GateJSON:   string(gateJSON),
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Errorf("expected row id 1, got %d", id)
	}

	steps, err := j.ListSteps("run-1", 0)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected 1 row, got %d", len(steps))
	}
	got := steps[0]
	if got.Kind != KindStep {
		t.Errorf("expected kind step, got %q", got.Kind)
	}
	if got.To != "S1" || got.Output != "B" || !got.Recognized {
		t.Errorf("unexpected row %+v", got)
	}
	if !got.CreatedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at round trip: %v", got.CreatedAt)
	}

	var back GateRecord
	if err := json.Unmarshal([]byte(got.GateJSON), &back); err != nil {
		t.Fatalf("gate json: %v", err)
	}
	if back.Nearest != "S1" || back.GateAction != "commit" {
		t.Errorf("unexpected gate record %+v", back)
	}
}

func TestLogStep_EmptyFieldsAreNull(t *testing.T) {
	j := setupJournal(t)

	if _, err := j.LogStep(StepEntry{RunID: "r", Kind: KindReset, To: "S0", Decision: "commit"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var relation, gate sql.NullString
	var created string
	j.DB().QueryRow("SELECT relation, gate_json, created_at FROM step_journal").Scan(&relation, &gate, &created)
	if relation.Valid {
		t.Errorf("expected NULL relation, got %q", relation.String)
	}
	if gate.Valid {
		t.Errorf("expected NULL gate_json, got %q", gate.String)
	}
	if created == "" {
		t.Error("expected created_at to be filled in")
	}
}

func TestListSteps_TailInOrder(t *testing.T) {
	j := setupJournal(t)
	for i, to := range []string{"S1", "S2", "S0", "S1"} {
		if _, err := j.LogStep(StepEntry{RunID: "r", To: to, Recognized: true, Iterations: i, Decision: "commit"}); err != nil {
			t.Fatalf("LogStep: %v", err)
		}
	}
	if _, err := j.LogStep(StepEntry{RunID: "other", To: "S2", Decision: "commit"}); err != nil {
		t.Fatalf("LogStep: %v", err)
	}

	tail, err := j.ListSteps("r", 2)
	if err != nil {
		t.Fatalf("ListSteps: %v", err)
	}
	if len(tail) != 2 || tail[0].To != "S0" || tail[1].To != "S1" {
		t.Fatalf("unexpected tail %+v", tail)
	}
	if tail[0].ID >= tail[1].ID {
		t.Fatal("tail should be in insertion order")
	}
}
// #endregion log-step-tests

// #region runs-tests
func TestRuns(t *testing.T) {
	j := setupJournal(t)
	entries := []StepEntry{
		{RunID: "a", Kind: KindReset, To: "S0", Decision: "commit"},
		{RunID: "a", To: "S1", Recognized: true, Decision: "commit"},
		{RunID: "a", Decision: "reject"},
		{RunID: "b", To: "S1", Recognized: true, Decision: "commit"},
	}
	for _, e := range entries {
		if _, err := j.LogStep(e); err != nil {
			t.Fatalf("LogStep: %v", err)
		}
	}

	runs, err := j.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	a := runs[0]
	if a.RunID != "a" || a.Steps != 2 || a.Recognized != 1 || a.Rejected != 1 || a.Resets != 1 {
		t.Fatalf("unexpected summary %+v", a)
	}
	if a.LastAt.Before(a.FirstAt) {
		t.Fatal("LastAt before FirstAt")
	}
}

func TestOpenJournal_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	if _, err := j.LogStep(StepEntry{RunID: "r", Decision: "commit"}); err != nil {
		t.Fatalf("LogStep: %v", err)
	}
	j.Close()

	j, err = OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	steps, err := j.ListSteps("r", 0)
	if err != nil || len(steps) != 1 {
		t.Fatalf("expected the row to survive reopen, got %d rows, err %v", len(steps), err)
	}
}
// #endregion runs-tests
