package state

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region record
// Record is one version of the machine's current state. Versions form a chain
// through ParentID; the first version has no parent.
type Record struct {
	VersionID string
	ParentID  string
	Label     string
	Vector    vector.Bipolar
	CreatedAt time.Time
}
// #endregion record

// #region errors
// ErrVersionNotFound is returned by Rollback for an unknown version ID.
var ErrVersionNotFound = errors.New("version not found")
// #endregion errors
