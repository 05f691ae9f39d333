package orchestrator

// #region imports
import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attractor-machine/internal/logging"
)

// #endregion

// #region options

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithJournal records every step and reset in j.
func WithJournal(j *logging.Journal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithRunID labels journal rows. The default is a fresh UUID.
func WithRunID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.runID = id
		}
	}
}

// #endregion
