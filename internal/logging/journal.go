// Package logging records every step and reset of a machine in a SQLite step
// journal. The journal is diagnostic: nothing is ever restored from it.
package logging

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS step_journal (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	from_state  TEXT,
	relation    TEXT,
	to_state    TEXT,
	output      TEXT,
	recognized  INTEGER NOT NULL,
	nearest     TEXT,
	distance    INTEGER NOT NULL,
	iterations  INTEGER NOT NULL,
	version_id  TEXT,
	decision    TEXT NOT NULL,
	reason      TEXT,
	gate_json   TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_step_journal_run ON step_journal(run_id, id);
`
// #endregion schema

// #region journal
// Journal appends step rows to a database.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) a SQLite journal at path. ":memory:" gives
// a private in-process journal.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	j, err := NewJournal(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// NewJournal migrates db and wraps it.
func NewJournal(db *sql.DB) (*Journal, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db}, nil
}

// DB returns the underlying *sql.DB.
func (j *Journal) DB() *sql.DB { return j.db }

// Close closes the underlying database connection.
func (j *Journal) Close() error { return j.db.Close() }
// #endregion journal

// #region log-step
// LogStep writes one entry to the step_journal table and returns its row ID.
func (j *Journal) LogStep(entry StepEntry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Kind == "" {
		entry.Kind = KindStep
	}

	res, err := j.db.Exec(
		`INSERT INTO step_journal (run_id, kind, from_state, relation, to_state, output, recognized,
		                           nearest, distance, iterations, version_id, decision, reason, gate_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		string(entry.Kind),
		nullIfEmpty(entry.From),
		nullIfEmpty(entry.Relation),
		nullIfEmpty(entry.To),
		nullIfEmpty(entry.Output),
		boolInt(entry.Recognized),
		nullIfEmpty(entry.Nearest),
		entry.Distance,
		entry.Iterations,
		nullIfEmpty(entry.VersionID),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.GateJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("log step: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("log step: %w", err)
	}
	return id, nil
}
// #endregion log-step

// #region queries
// ListSteps returns the last limit rows of a run in insertion order. A limit
// of zero or less returns the whole run.
func (j *Journal) ListSteps(runID string, limit int) ([]StepEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.Query(
		`SELECT id, run_id, kind, from_state, relation, to_state, output, recognized,
		        nearest, distance, iterations, version_id, decision, reason, gate_json, created_at
		 FROM (SELECT * FROM step_journal WHERE run_id = ? ORDER BY id DESC LIMIT ?)
		 ORDER BY id ASC`, runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var entries []StepEntry
	for rows.Next() {
		var (
			e                                           StepEntry
			kind, createdStr                            string
			from, rel, to, out, nearest, ver, rsn, gate sql.NullString
			recognized                                  int
		)
		if err := rows.Scan(&e.ID, &e.RunID, &kind, &from, &rel, &to, &out, &recognized,
			&nearest, &e.Distance, &e.Iterations, &ver, &e.Decision, &rsn, &gate, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Kind = Kind(kind)
		e.From, e.Relation, e.To, e.Output = from.String, rel.String, to.String, out.String
		e.Nearest, e.VersionID, e.Reason, e.GateJSON = nearest.String, ver.String, rsn.String, gate.String
		e.Recognized = recognized != 0
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Runs summarizes every run in the journal, oldest first.
func (j *Journal) Runs() ([]RunSummary, error) {
	rows, err := j.db.Query(
		`SELECT run_id,
		        SUM(CASE WHEN kind = 'step' THEN 1 ELSE 0 END),
		        SUM(CASE WHEN kind = 'step' AND recognized = 1 THEN 1 ELSE 0 END),
		        SUM(CASE WHEN kind = 'step' AND recognized = 0 THEN 1 ELSE 0 END),
		        SUM(CASE WHEN kind = 'reset' THEN 1 ELSE 0 END),
		        MIN(created_at), MAX(created_at)
		 FROM step_journal GROUP BY run_id ORDER BY MIN(id)`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var first, last string
		if err := rows.Scan(&r.RunID, &r.Steps, &r.Recognized, &r.Rejected, &r.Resets, &first, &last); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.FirstAt, _ = time.Parse(time.RFC3339Nano, first)
		r.LastAt, _ = time.Parse(time.RFC3339Nano, last)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
// #endregion queries

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
// #endregion helpers
