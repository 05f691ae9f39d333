// Package state holds the runtime state register: the only mutable value in
// the transition pipeline. Every change is a new version linked to its parent,
// so the path the machine took can be read back.
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region register
// Register tracks the current state version. It is not safe for concurrent
// use; callers serialize access.
type Register struct {
	versions []Record
	byID     map[string]int
	active   int
	now      func() time.Time
}

// NewRegister creates a register whose first version holds label and v.
func NewRegister(label string, v vector.Bipolar) *Register {
	r := &Register{byID: map[string]int{}, now: func() time.Time { return time.Now().UTC() }}
	r.append("", label, v)
	return r
}
// #endregion register

// #region read
// Current returns the active version.
func (r *Register) Current() Record {
	return r.copyOf(r.versions[r.active])
}

// Version returns the record with the given ID.
func (r *Register) Version(id string) (Record, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Record{}, false
	}
	return r.copyOf(r.versions[i]), true
}

// Versions returns the number of versions ever committed.
func (r *Register) Versions() int { return len(r.versions) }

// ListVersions returns up to limit versions, most recent first. A limit of
// zero or less returns all of them.
func (r *Register) ListVersions(limit int) []Record {
	n := len(r.versions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, 0, n)
	for i := len(r.versions) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.copyOf(r.versions[i]))
	}
	return out
}

// Lineage walks parent links from the active version back to the root.
func (r *Register) Lineage() []Record {
	var out []Record
	for i := r.active; ; {
		rec := r.versions[i]
		out = append(out, r.copyOf(rec))
		if rec.ParentID == "" {
			return out
		}
		i = r.byID[rec.ParentID]
	}
}
// #endregion read

// #region write
// Commit records label and v as a new version whose parent is the active one,
// and makes it active.
func (r *Register) Commit(label string, v vector.Bipolar) Record {
	return r.append(r.versions[r.active].VersionID, label, v)
}

// Rollback makes an earlier version active again without discarding history.
func (r *Register) Rollback(versionID string) error {
	i, ok := r.byID[versionID]
	if !ok {
		return fmt.Errorf("rollback %s: %w", versionID, ErrVersionNotFound)
	}
	r.active = i
	return nil
}

func (r *Register) append(parent, label string, v vector.Bipolar) Record {
	rec := Record{
		VersionID: uuid.New().String(),
		ParentID:  parent,
		Label:     label,
		Vector:    v.Clone(),
		CreatedAt: r.now(),
	}
	r.byID[rec.VersionID] = len(r.versions)
	r.versions = append(r.versions, rec)
	r.active = len(r.versions) - 1
	return r.copyOf(rec)
}

func (r *Register) copyOf(rec Record) Record {
	rec.Vector = rec.Vector.Clone()
	return rec
}
// #endregion write
