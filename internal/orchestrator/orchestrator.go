// Package orchestrator drives a Moore machine stored as attractors of a
// layered associative memory: it builds the probe from the current state and
// an input symbol, recalls the successor, classifies it against the known
// states, and either commits it or faults.
package orchestrator

// #region imports
import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attractor-machine/internal/encoding"
	"github.com/danielpatrickdp/attractor-machine/internal/gate"
	"github.com/danielpatrickdp/attractor-machine/internal/logging"
	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/network"
	"github.com/danielpatrickdp/attractor-machine/internal/state"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #endregion

// #region orchestrator-struct

// Orchestrator owns one runtime register over a read-only transition network.
// Step and Reset are serialized internally; Resolve and the read-only
// accessors never touch the register.
type Orchestrator struct {
	def     Definition
	cfg     Config
	book    *encoding.Codebook
	net     *network.Network
	gate    *gate.Gate
	states  []labeled
	edges   int
	isState map[string]bool
	isRel   map[string]bool

	mu       sync.Mutex
	reg      *state.Register
	status   Status
	failure  *RecognitionFailure
	steps    int
	accepted int
	rejected int
	resets   int

	logger  *zap.Logger
	journal *logging.Journal
	runID   string
}

// #endregion

// #region constructor

// New validates def and builds every stage. Any build error aborts
// construction; a machine that was specified wrongly never runs.
func New(def Definition, cfg Config, opts ...Option) (*Orchestrator, error) {
	def, err := normalize(def)
	if err != nil {
		return nil, err
	}

	labels := append(slices.Clone(def.States), def.Relations...)
	book, err := encoding.Generate(labels, cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("encode symbols: %w", err)
	}

	patterns, err := minterm.Build(def.Transitions, book)
	if err != nil {
		return nil, fmt.Errorf("build patterns: %w", err)
	}

	o := &Orchestrator{
		def:     def,
		cfg:     cfg,
		book:    book,
		gate:    gate.NewGate(cfg.Gate),
		isState: make(map[string]bool, len(def.States)),
		isRel:   make(map[string]bool, len(def.Relations)),
		edges:   len(patterns),
		status:  StatusReady,
		logger:  zap.NewNop(),
		runID:   uuid.New().String(),
	}
	for _, opt := range opts {
		opt(o)
	}

	vecs := make([]vector.Bipolar, 0, len(def.States))
	for _, s := range def.States {
		v, _ := book.Vector(s)
		o.states = append(o.states, labeled{label: s, vec: v})
		o.isState[s] = true
		vecs = append(vecs, v)
	}
	for _, r := range def.Relations {
		o.isRel[r] = true
	}

	o.net, err = network.BuildTransitionNetwork(patterns, vecs, cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	start, _ := book.Vector(def.Start)
	o.reg = state.NewRegister(def.Start, start)

	o.logger.Info("machine built",
		zap.String("run_id", o.runID),
		zap.Int("states", len(def.States)),
		zap.Int("relations", len(def.Relations)),
		zap.Int("transitions", len(patterns)),
		zap.Int("dimension", book.Dimension()),
		zap.Float64("max_overlap", book.WorstOverlap()),
		zap.Strings("layers", o.net.Order()),
		zap.String("start", def.Start),
	)
	return o, nil
}

// normalize copies def, fills in the start state, and checks everything the
// later stages cannot: roles, outputs, and the start label.
func normalize(def Definition) (Definition, error) {
	if len(def.States) == 0 || len(def.Relations) == 0 {
		return Definition{}, ErrNoStates
	}
	out := Definition{
		States:      slices.Clone(def.States),
		Relations:   slices.Clone(def.Relations),
		Transitions: slices.Clone(def.Transitions),
		Outputs:     make(map[string]string, len(def.Outputs)),
		Start:       def.Start,
	}
	if out.Start == "" {
		out.Start = out.States[0]
	}

	states := make(map[string]bool, len(out.States))
	for _, s := range out.States {
		states[s] = true
	}
	for _, r := range out.Relations {
		if states[r] {
			return Definition{}, fmt.Errorf("%q: %w", r, ErrLabelCollision)
		}
	}
	relations := make(map[string]bool, len(out.Relations))
	for _, r := range out.Relations {
		relations[r] = true
	}

	for i, t := range out.Transitions {
		switch {
		case !states[t.From]:
			return Definition{}, fmt.Errorf("transition %d from: %w", i, &encoding.UnknownLabelError{Label: t.From})
		case !relations[t.Relation]:
			return Definition{}, fmt.Errorf("transition %d relation: %w", i, &encoding.UnknownLabelError{Label: t.Relation})
		case !states[t.To]:
			return Definition{}, fmt.Errorf("transition %d to: %w", i, &encoding.UnknownLabelError{Label: t.To})
		}
	}

	for s, output := range def.Outputs {
		if !states[s] {
			return Definition{}, fmt.Errorf("output for %w", &encoding.UnknownLabelError{Label: s})
		}
		out.Outputs[s] = output
	}
	for _, s := range out.States {
		if _, ok := out.Outputs[s]; !ok {
			return Definition{}, fmt.Errorf("%q: %w", s, ErrMissingOutput)
		}
	}
	if !states[out.Start] {
		return Definition{}, fmt.Errorf("start: %w", &encoding.UnknownLabelError{Label: out.Start})
	}
	return out, nil
}

// #endregion

// #region runtime

// Reset puts the machine in label and clears a fault.
func (o *Orchestrator) Reset(label string) error {
	if !o.isState[label] {
		return &encoding.UnknownLabelError{Label: label}
	}
	v, _ := o.book.Vector(label)

	o.mu.Lock()
	defer o.mu.Unlock()

	from := o.reg.Current().Label
	rec := o.reg.Commit(label, v)
	o.status = StatusReady
	o.failure = nil
	o.resets++

	o.logger.Info("reset", zap.String("run_id", o.runID), zap.String("state", label))
	o.record(logging.StepEntry{
		Kind:       logging.KindReset,
		From:       from,
		To:         label,
		Output:     o.def.Outputs[label],
		Recognized: true,
		VersionID:  rec.VersionID,
		Decision:   "commit",
		Reason:     "reset",
	})
	return nil
}

// Step applies one input symbol. An unrecognized successor faults the machine
// and comes back as StepResult.Recognized == false with the raw vector in
// Failure; errors are reserved for misuse.
func (o *Orchestrator) Step(relation string) (StepResult, error) {
	if !o.isRel[relation] {
		return StepResult{}, &encoding.UnknownLabelError{Label: relation}
	}
	rel, _ := o.book.Vector(relation)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status == StatusFaulted {
		return StepResult{}, ErrFaulted
	}

	cur := o.reg.Current()
	res, err := o.Resolve(vector.Concat(cur.Vector, rel))
	if err != nil {
		return StepResult{}, fmt.Errorf("step %s from %s: %w", relation, cur.Label, err)
	}
	o.steps++

	entry := logging.StepEntry{
		From:       cur.Label,
		Relation:   relation,
		Nearest:    res.Match.Label,
		Distance:   res.Match.Distance,
		Iterations: res.Iterations,
		Decision:   res.Decision.Action,
		Reason:     res.Decision.Reason,
		GateJSON:   o.gateJSON(res),
	}

	if !res.Recognized() {
		o.rejected++
		o.status = StatusFaulted
		o.failure = &RecognitionFailure{
			From:      cur.Label,
			Relation:  relation,
			Raw:       res.Raw,
			Nearest:   res.Match.Label,
			Distance:  res.Match.Distance,
			Converged: res.Converged,
			Reason:    res.Decision.Reason,
		}
		rec := o.reg.Commit("", res.Raw)
		entry.VersionID = rec.VersionID

		o.logger.Warn("recognition failed",
			zap.String("run_id", o.runID),
			zap.String("from", cur.Label),
			zap.String("relation", relation),
			zap.String("nearest", res.Match.Label),
			zap.Int("distance", res.Match.Distance),
			zap.Bool("converged", res.Converged),
			zap.String("reason", res.Decision.Reason),
		)
		o.record(entry)
		return StepResult{Iterations: res.Iterations, Failure: o.failure}, nil
	}

	o.accepted++
	canonical, _ := o.book.Vector(res.Match.Label)
	rec := o.reg.Commit(res.Match.Label, canonical)
	output := o.def.Outputs[res.Match.Label]

	entry.To, entry.Output, entry.Recognized, entry.VersionID = res.Match.Label, output, true, rec.VersionID
	o.logger.Debug("step",
		zap.String("run_id", o.runID),
		zap.String("from", cur.Label),
		zap.String("relation", relation),
		zap.String("to", res.Match.Label),
		zap.String("output", output),
		zap.Int("distance", res.Match.Distance),
		zap.Int("iterations", res.Iterations),
	)
	o.record(entry)

	return StepResult{
		Output:     output,
		State:      res.Match.Label,
		Recognized: true,
		Iterations: res.Iterations,
	}, nil
}

// Resolve recalls probe through the network, classifies the result, and asks
// the gate. It has no side effects and is safe for concurrent use.
func (o *Orchestrator) Resolve(probe vector.Bipolar) (Resolution, error) {
	tr, err := o.net.Step(probe)
	if err != nil {
		return Resolution{}, err
	}
	iterations := 0
	if l, ok := tr.Layer(network.LayerState); ok {
		iterations = l.Iterations
	}
	match := classify(tr.Output, o.states)
	return Resolution{
		Raw:        tr.Output,
		Match:      match,
		Converged:  tr.Converged,
		Iterations: iterations,
		Decision:   o.gate.Evaluate(match, tr.Converged),
		Trace:      tr,
	}, nil
}

// #endregion

// #region introspection

// Current classifies the register the same way Step classifies a recall.
// It reports false while the machine is faulted.
func (o *Orchestrator) Current() (string, bool) {
	o.mu.Lock()
	v := o.reg.Current().Vector
	o.mu.Unlock()

	match := classify(v, o.states)
	if o.gate.Evaluate(match, true).Action != "commit" {
		return "", false
	}
	return match.Label, true
}

// Status reports whether the machine can step.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// LastFailure returns the failure that faulted the machine, or nil.
func (o *Orchestrator) LastFailure() *RecognitionFailure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failure
}

// History returns the register's versions from the current one back to the
// first.
func (o *Orchestrator) History() []state.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reg.Lineage()
}

// Probe builds the minterm probe for a (state, relation) pair.
func (o *Orchestrator) Probe(from, relation string) (vector.Bipolar, error) {
	if !o.isState[from] {
		return nil, &encoding.UnknownLabelError{Label: from}
	}
	if !o.isRel[relation] {
		return nil, &encoding.UnknownLabelError{Label: relation}
	}
	a, _ := o.book.Vector(from)
	b, _ := o.book.Vector(relation)
	return vector.Concat(a, b), nil
}

// Output returns the Moore output of a state.
func (o *Orchestrator) Output(label string) (string, bool) {
	out, ok := o.def.Outputs[label]
	return out, ok
}

// Vector returns the canonical vector of a state or relation.
func (o *Orchestrator) Vector(label string) (vector.Bipolar, bool) {
	return o.book.Vector(label)
}

// Definition returns a copy of the normalized definition.
func (o *Orchestrator) Definition() Definition {
	d := o.def
	d.States = slices.Clone(d.States)
	d.Relations = slices.Clone(d.Relations)
	d.Transitions = slices.Clone(d.Transitions)
	d.Outputs = make(map[string]string, len(o.def.Outputs))
	for k, v := range o.def.Outputs {
		d.Outputs[k] = v
	}
	return d
}

// Codebook returns the symbol codebook.
func (o *Orchestrator) Codebook() *encoding.Codebook { return o.book }

// RunID returns the journal run label.
func (o *Orchestrator) RunID() string { return o.runID }

// Stats reports the machine's shape, memory load, and counters.
func (o *Orchestrator) Stats() Stats {
	var layers []LayerStats
	for _, name := range o.net.Order() {
		l, _ := o.net.Layer(name)
		layers = append(layers, LayerStats{Name: name, Info: l.Memory.Info()})
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return Stats{
		States:      len(o.def.States),
		Relations:   len(o.def.Relations),
		Transitions: o.edges,
		Dimension:   o.book.Dimension(),
		ExactBasis:  o.book.ExactCount(),
		MaxOverlap:  o.book.WorstOverlap(),
		Layers:      layers,
		Status:      o.status,
		Steps:       o.steps,
		Recognized:  o.accepted,
		Rejected:    o.rejected,
		Resets:      o.resets,
	}
}

// #endregion

// #region helpers

func (o *Orchestrator) gateJSON(res Resolution) string {
	vetoes := make([]string, 0, len(res.Decision.VetoSignals))
	for _, v := range res.Decision.VetoSignals {
		vetoes = append(vetoes, string(v.Type))
	}
	b, err := json.Marshal(logging.GateRecord{
		Raw:           res.Raw.String(),
		Nearest:       res.Match.Label,
		Distance:      res.Match.Distance,
		Dimension:     res.Match.Dimension,
		Converged:     res.Converged,
		MaxDistance:   o.cfg.Gate.MaxDistance,
		GateAction:    res.Decision.Action,
		GateSoftScore: res.Decision.SoftScore,
		GateVetoed:    res.Decision.Vetoed,
		GateVetoes:    vetoes,
		GateReason:    res.Decision.Reason,
	})
	if err != nil {
		return ""
	}
	return string(b)
}

// record appends to the journal when one is attached. Journal failures are
// logged and otherwise ignored.
func (o *Orchestrator) record(e logging.StepEntry) {
	if o.journal == nil {
		return
	}
	e.RunID = o.runID
	if _, err := o.journal.LogStep(e); err != nil {
		o.logger.Warn("journal write failed", zap.String("run_id", o.runID), zap.Error(err))
	}
}

// #endregion
