// Package hopfield implements the Hebbian associative memory layer.
//
// A Memory is an immutable row-major weight matrix plus a threshold vector.
// Auto-associative memories (every stored input equals its target) are
// recurrent: recall iterates v ← sign(W·v − θ) until a fixed point or the
// iteration bound. All other memories are feed-forward and recall in a single
// pass. sign(0) is +1 everywhere.
package hopfield

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region memory

// Memory is a stored weight matrix. It is read-only after construction and
// safe for concurrent recall.
type Memory struct {
	rows, cols int
	weights    []float64 // rows × cols, row-major
	thresholds []float64 // len rows
	recurrent  bool
	patterns   int
	limit      float64
	cfg        Config
}

// InputDim returns the probe length.
func (m *Memory) InputDim() int { return m.cols }

// OutputDim returns the recalled vector length.
func (m *Memory) OutputDim() int { return m.rows }

// Recurrent reports whether recall iterates.
func (m *Memory) Recurrent() bool { return m.recurrent }

// Patterns returns the number of stored patterns.
func (m *Memory) Patterns() int { return m.patterns }

// Weight returns W[o][i].
func (m *Memory) Weight(o, i int) float64 { return m.weights[o*m.cols+i] }

// Threshold returns θ[o].
func (m *Memory) Threshold(o int) float64 { return m.thresholds[o] }

// Info reports the memory's load against its capacity bound.
func (m *Memory) Info() Info {
	return Info{
		Patterns:      m.patterns,
		InputDim:      m.cols,
		OutputDim:     m.rows,
		Recurrent:     m.recurrent,
		CapacityRatio: float64(m.patterns) / m.limit,
	}
}

// #endregion memory

// #region store

// Store builds W = Σ outer(target, input) over patterns, divided by the
// pattern count when cfg.Normalize is set. When every pattern is
// auto-associative the memory is recurrent and, with cfg.ZeroDiagonal, has no
// self-connections.
func Store(patterns []Pattern, cfg Config) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("store: %w", ErrNoPatterns)
	}

	cols, rows := len(patterns[0].Input), len(patterns[0].Target)
	auto := true
	for i, p := range patterns {
		if err := p.Input.Validate(); err != nil {
			return nil, fmt.Errorf("store: pattern %d input: %w", i, err)
		}
		if err := p.Target.Validate(); err != nil {
			return nil, fmt.Errorf("store: pattern %d target: %w", i, err)
		}
		if len(p.Input) != cols || len(p.Target) != rows {
			return nil, fmt.Errorf("store: pattern %d is %d→%d, want %d→%d: %w",
				i, len(p.Input), len(p.Target), cols, rows, ErrShape)
		}
		if !p.Input.Equal(p.Target) {
			auto = false
		}
	}

	limit := cfg.HeteroCapacity * float64(cols)
	if auto {
		limit = cfg.AutoCapacity * float64(cols)
	}
	if float64(len(patterns)) > limit {
		return nil, &CapacityExceededError{Patterns: len(patterns), Dimension: cols, Limit: limit, Auto: auto}
	}

	w := make([]float64, rows*cols)
	for _, p := range patterns {
		for o := 0; o < rows; o++ {
			t := float64(p.Target[o])
			row := w[o*cols : (o+1)*cols]
			for i, x := range p.Input {
				row[i] += t * float64(x)
			}
		}
	}
	if cfg.Normalize {
		n := float64(len(patterns))
		for i := range w {
			w[i] /= n
		}
	}
	if auto && cfg.ZeroDiagonal {
		for i := 0; i < rows; i++ {
			w[i*cols+i] = 0
		}
	}

	return &Memory{
		rows:       rows,
		cols:       cols,
		weights:    w,
		thresholds: make([]float64, rows),
		recurrent:  auto,
		patterns:   len(patterns),
		limit:      limit,
		cfg:        cfg,
	}, nil
}

// Detector builds a minterm bank: one neuron per key whose weight row is the
// key itself (the outer product of the key with a one-hot target) and whose
// threshold is level·|key|². A neuron fires (+1) when dot(key, probe) reaches
// level·len(key); with orthogonal symbols a key sharing only one half of a
// probe scores len/2, so level in (0.5, 1) separates exact from partial matches.
func Detector(keys []vector.Bipolar, level float64, cfg Config) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("detector: %w", ErrNoPatterns)
	}
	if level <= 0 || level > 1 {
		return nil, fmt.Errorf("detector: level %.3f outside (0, 1]", level)
	}

	cols, rows := len(keys[0]), len(keys)
	limit := cfg.HeteroCapacity * float64(cols)
	if float64(rows) > limit {
		return nil, &CapacityExceededError{Patterns: rows, Dimension: cols, Limit: limit}
	}

	w := make([]float64, rows*cols)
	th := make([]float64, rows)
	for j, k := range keys {
		if err := k.Validate(); err != nil {
			return nil, fmt.Errorf("detector: key %d: %w", j, err)
		}
		if len(k) != cols {
			return nil, fmt.Errorf("detector: key %d has length %d, want %d: %w", j, len(k), cols, ErrShape)
		}
		for i, x := range k {
			w[j*cols+i] = float64(x)
		}
		th[j] = level * float64(cols)
	}

	return &Memory{rows: rows, cols: cols, weights: w, thresholds: th, patterns: rows, limit: limit, cfg: cfg}, nil
}

// Projector builds the layer that maps bipolar minterm activity to a state
// vector: column j is targets[j] and θ = −Σ targets, so the net input is
// exactly 2·Σ of the targets whose minterm fired, and zero when none fired.
func Projector(targets []vector.Bipolar, cfg Config) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("projector: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("projector: %w", ErrNoPatterns)
	}

	cols, rows := len(targets), len(targets[0])
	w := make([]float64, rows*cols)
	th := make([]float64, rows)
	for j, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("projector: target %d: %w", j, err)
		}
		if len(t) != rows {
			return nil, fmt.Errorf("projector: target %d has length %d, want %d: %w", j, len(t), rows, ErrShape)
		}
		for o, x := range t {
			w[o*cols+j] = float64(x)
			th[o] -= float64(x)
		}
	}

	return &Memory{rows: rows, cols: cols, weights: w, thresholds: th, patterns: cols, limit: float64(cols), cfg: cfg}, nil
}

// #endregion store

// #region recall

// Recall evolves probe under the update rule. Feed-forward memories take one
// pass and always report convergence. Recurrent memories iterate until the
// vector stops changing or cfg.MaxIterations is reached; running out of
// iterations is reported through Converged, not as an error.
func (m *Memory) Recall(probe vector.Bipolar) (Result, error) {
	if len(probe) != m.cols {
		return Result{}, fmt.Errorf("recall: probe length %d, want %d: %w", len(probe), m.cols, ErrShape)
	}
	if !m.recurrent {
		out := make(vector.Bipolar, m.rows)
		for o := range out {
			out[o] = vector.Sign(m.net(o, probe))
		}
		return Result{Vector: out, Converged: true, Iterations: 1}, nil
	}
	if m.cfg.Mode == Asynchronous {
		return m.recallAsync(probe), nil
	}
	return m.recallSync(probe), nil
}

func (m *Memory) recallSync(probe vector.Bipolar) Result {
	v := probe.Clone()
	energies := []float64{m.Energy(v)}
	for it := 1; it <= m.cfg.MaxIterations; it++ {
		next := make(vector.Bipolar, m.rows)
		for o := range next {
			next[o] = vector.Sign(m.net(o, v))
		}
		energies = append(energies, m.Energy(next))
		if next.Equal(v) {
			return Result{Vector: next, Converged: true, Iterations: it, Energies: energies}
		}
		v = next
	}
	return Result{Vector: v, Converged: false, Iterations: m.cfg.MaxIterations, Energies: energies}
}

func (m *Memory) recallAsync(probe vector.Bipolar) Result {
	v := probe.Clone()
	rng := rand.New(rand.NewPCG(m.cfg.Seed, 0x5deece66d))
	energies := []float64{m.Energy(v)}
	for sweep := 1; sweep <= m.cfg.MaxIterations; sweep++ {
		changed := false
		for _, i := range rng.Perm(m.rows) {
			s := vector.Sign(m.net(i, v))
			if s != v[i] {
				v[i] = s
				changed = true
			}
		}
		energies = append(energies, m.Energy(v))
		if !changed {
			return Result{Vector: v, Converged: true, Iterations: sweep, Energies: energies}
		}
	}
	return Result{Vector: v, Converged: false, Iterations: m.cfg.MaxIterations, Energies: energies}
}

// net returns Σ_i W[o][i]·x[i] − θ[o].
func (m *Memory) net(o int, x vector.Bipolar) float64 {
	row := m.weights[o*m.cols : (o+1)*m.cols]
	var h float64
	for i, xi := range x {
		h += row[i] * float64(xi)
	}
	return h - m.thresholds[o]
}

// #endregion recall

// #region energy

// Energy returns E(v) = −½·vᵀWv + θ·v. It is defined for square memories
// only and is NaN otherwise.
func (m *Memory) Energy(v vector.Bipolar) float64 {
	if m.rows != m.cols || len(v) != m.cols {
		return math.NaN()
	}
	var quad, lin float64
	for o := 0; o < m.rows; o++ {
		row := m.weights[o*m.cols : (o+1)*m.cols]
		var h float64
		for i, x := range v {
			h += row[i] * float64(x)
		}
		quad += float64(v[o]) * h
		lin += m.thresholds[o] * float64(v[o])
	}
	return -0.5*quad + lin
}

// #endregion energy
