package network

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/attractor-machine/internal/encoding"
	"github.com/danielpatrickdp/attractor-machine/internal/hopfield"
	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region helpers

type fixture struct {
	book     *encoding.Codebook
	patterns []minterm.Pattern
	states   []vector.Bipolar
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	book, err := encoding.Generate([]string{"S0", "S1", "S2", "LIKES", "FATHER_OF"}, encoding.DefaultConfig())
	require.NoError(t, err)

	patterns, err := minterm.Build([]minterm.Transition{
		{From: "S0", Relation: "LIKES", To: "S1"},
		{From: "S1", Relation: "FATHER_OF", To: "S2"},
		{From: "S2", Relation: "FATHER_OF", To: "S0"},
	}, book)
	require.NoError(t, err)

	var states []vector.Bipolar
	for _, l := range []string{"S0", "S1", "S2"} {
		v, _ := book.Vector(l)
		states = append(states, v)
	}
	return fixture{book: book, patterns: patterns, states: states}
}

func (f fixture) probe(t *testing.T, from, rel string) vector.Bipolar {
	t.Helper()
	a, ok := f.book.Vector(from)
	require.True(t, ok)
	b, ok := f.book.Vector(rel)
	require.True(t, ok)
	return vector.Concat(a, b)
}

func autoMemory(t *testing.T, v vector.Bipolar) *hopfield.Memory {
	t.Helper()
	cfg := hopfield.DefaultConfig()
	cfg.AutoCapacity = 1
	m, err := hopfield.Store([]hopfield.Pattern{{Input: v, Target: v}}, cfg)
	require.NoError(t, err)
	return m
}

func symbol(t *testing.T, dim int) vector.Bipolar {
	t.Helper()
	cfg := encoding.DefaultConfig()
	cfg.Dimension = dim
	book, err := encoding.Generate([]string{"p"}, cfg)
	require.NoError(t, err)
	v, _ := book.Vector("p")
	return v
}

// #endregion helpers

// #region transition-network

func TestTransitionNetwork_Layout(t *testing.T) {
	f := newFixture(t)
	net, err := BuildTransitionNetwork(f.patterns, f.states, DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, []string{"minterm-0", LayerSuccessor, LayerState}, net.Order())
	require.Equal(t, 128, net.ProbeDim())
	require.Equal(t, 64, net.OutputDim())

	state, ok := net.Layer(LayerState)
	require.True(t, ok)
	require.True(t, state.Memory.Recurrent())
	require.Equal(t, len(f.states)+1, state.Memory.Patterns())
}

func TestTransitionNetwork_ExactProbes(t *testing.T) {
	f := newFixture(t)
	net, err := BuildTransitionNetwork(f.patterns, f.states, DefaultConfig())
	require.NoError(t, err)

	for _, p := range f.patterns {
		tr, err := net.Step(p.Key)
		require.NoError(t, err)
		require.True(t, tr.Converged, "%v", p.Transition)
		require.True(t, tr.Output.Equal(p.Target), "%v recalled %s", p.Transition, tr.Output)

		succ, ok := tr.Layer(LayerSuccessor)
		require.True(t, ok)
		require.True(t, succ.Output.Equal(p.Target))
	}
}

func TestTransitionNetwork_UndefinedProbeFallsIntoNullAttractor(t *testing.T) {
	f := newFixture(t)
	for _, mode := range []hopfield.UpdateMode{hopfield.Synchronous, hopfield.Asynchronous} {
		cfg := DefaultConfig()
		cfg.Memory.Mode = mode
		net, err := BuildTransitionNetwork(f.patterns, f.states, cfg)
		require.NoError(t, err)

		tr, err := net.Step(f.probe(t, "S2", "LIKES"))
		require.NoError(t, err)
		require.True(t, tr.Output.Equal(vector.Ones(64)), "%s: %s", mode, tr.Output)
		for _, s := range f.states {
			require.Equal(t, 32, vector.Hamming(tr.Output, s))
		}
	}
}

func TestTransitionNetwork_NoisyProbe(t *testing.T) {
	f := newFixture(t)
	net, err := BuildTransitionNetwork(f.patterns, f.states, DefaultConfig())
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	for trial := 0; trial < 50; trial++ {
		p := f.patterns[trial%len(f.patterns)]
		tr, err := net.Step(vector.Perturb(p.Key, 6, rng))
		require.NoError(t, err)
		require.True(t, tr.Output.Equal(p.Target), "trial %d", trial)
	}
}

func TestTransitionNetwork_SplitsBanks(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.Memory.HeteroCapacity = 2.0 / 128

	net, err := BuildTransitionNetwork(f.patterns, f.states, cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"minterm-0", "minterm-1", LayerSuccessor, LayerState}, net.Order())

	bank, ok := net.Layer("minterm-1")
	require.True(t, ok)
	require.Equal(t, 1, bank.Memory.OutputDim())

	for _, p := range f.patterns {
		tr, err := net.Step(p.Key)
		require.NoError(t, err)
		require.True(t, tr.Output.Equal(p.Target))
	}
}

func TestTransitionNetwork_StateCapacity(t *testing.T) {
	f := newFixture(t)
	cfg := DefaultConfig()
	cfg.Memory.AutoCapacity = 3.0 / 64

	_, err := BuildTransitionNetwork(f.patterns, f.states, cfg)
	var capErr *hopfield.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	require.True(t, capErr.Auto)
	require.Equal(t, 4, capErr.Patterns)
}

func TestTransitionNetwork_RejectsEmptyInput(t *testing.T) {
	f := newFixture(t)
	_, err := BuildTransitionNetwork(nil, f.states, DefaultConfig())
	require.ErrorIs(t, err, hopfield.ErrNoPatterns)
	_, err = BuildTransitionNetwork(f.patterns, nil, DefaultConfig())
	require.ErrorIs(t, err, hopfield.ErrNoPatterns)
	_, err = BuildTransitionNetwork(f.patterns, []vector.Bipolar{vector.Ones(8)}, DefaultConfig())
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

// #endregion transition-network

// #region compose

func TestCompose_Cycle(t *testing.T) {
	p := symbol(t, 16)
	layers := []Layer{{Name: "a", Memory: autoMemory(t, p)}, {Name: "b", Memory: autoMemory(t, p)}}

	_, err := Compose(16, layers, map[string][]Source{
		"a": {{Layer: "b"}},
		"b": {{Layer: "a"}},
	})
	var cyc *CyclicConnectivityError
	require.ErrorAs(t, err, &cyc)
	require.Equal(t, []string{"a", "b"}, cyc.Layers)

	net, err := Compose(16, layers, map[string][]Source{
		"a": {{Layer: "b", Delayed: true}},
		"b": {{Layer: "a"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, net.Order())
}

func TestCompose_OrdersByDependency(t *testing.T) {
	p := symbol(t, 16)
	layers := []Layer{{Name: "late", Memory: autoMemory(t, p)}, {Name: "early", Memory: autoMemory(t, p)}}
	net, err := Compose(16, layers, map[string][]Source{
		"late":  {{Layer: "early"}},
		"early": {{Layer: ProbeSource}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"early", "late"}, net.Order())

	tr, err := net.Step(p)
	require.NoError(t, err)
	require.True(t, tr.Output.Equal(p))
}

func TestCompose_Slices(t *testing.T) {
	p := symbol(t, 16)
	net, err := Compose(32, []Layer{{Name: "half", Memory: autoMemory(t, p)}}, map[string][]Source{
		"half": {{Layer: ProbeSource, Lo: 16}},
	})
	require.NoError(t, err)

	tr, err := net.Step(vector.Concat(vector.Ones(16), p))
	require.NoError(t, err)
	require.True(t, tr.Output.Equal(p))
}

func TestCompose_Errors(t *testing.T) {
	p := symbol(t, 16)
	mem := autoMemory(t, p)

	cases := []struct {
		name   string
		layers []Layer
		conn   map[string][]Source
		want   error
	}{
		{"width", []Layer{{Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: ProbeSource, Hi: 8}}}, ErrDimensionMismatch},
		{"slice", []Layer{{Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: ProbeSource, Lo: 4, Hi: 40}}}, ErrDimensionMismatch},
		{"unknown source", []Layer{{Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: "zz"}}}, ErrInvalidGraph},
		{"unknown target", []Layer{{Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: ProbeSource}}, "zz": {{Layer: ProbeSource}}}, ErrInvalidGraph},
		{"reserved", []Layer{{Name: ProbeSource, Memory: mem}}, map[string][]Source{}, ErrInvalidGraph},
		{"duplicate", []Layer{{Name: "a", Memory: mem}, {Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: ProbeSource}}}, ErrInvalidGraph},
		{"no inputs", []Layer{{Name: "a", Memory: mem}}, map[string][]Source{}, ErrInvalidGraph},
		{"delayed probe", []Layer{{Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: ProbeSource, Delayed: true}}}, ErrInvalidGraph},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compose(16, tc.layers, tc.conn)
			require.ErrorIs(t, err, tc.want)
		})
	}

	net, err := Compose(16, []Layer{{Name: "a", Memory: mem}}, map[string][]Source{"a": {{Layer: ProbeSource}}})
	require.NoError(t, err)
	_, err = net.Step(vector.Ones(8))
	require.True(t, errors.Is(err, ErrDimensionMismatch))
}

// #endregion compose

// #region session

func TestSession_DelayedFeedback(t *testing.T) {
	p := symbol(t, 16)
	det, err := hopfield.Detector([]vector.Bipolar{p}, 1, hopfield.DefaultConfig())
	require.NoError(t, err)

	net, err := Compose(16, []Layer{
		{Name: "in", Memory: autoMemory(t, p)},
		{Name: "seen", Memory: det},
	}, map[string][]Source{
		"in":   {{Layer: ProbeSource}},
		"seen": {{Layer: "in", Delayed: true}},
	})
	require.NoError(t, err)

	fired := vector.Bipolar{1}
	quiet := vector.Bipolar{-1}

	sess := net.NewSession()
	tr, err := sess.Step(p)
	require.NoError(t, err)
	require.Equal(t, quiet, tr.Output, "first step reads the tie vector")

	tr, err = sess.Step(p)
	require.NoError(t, err)
	require.Equal(t, fired, tr.Output, "second step reads the previous recall")

	sess.Reset()
	tr, err = sess.Step(p)
	require.NoError(t, err)
	require.Equal(t, quiet, tr.Output)

	tr, err = net.Step(p)
	require.NoError(t, err)
	require.Equal(t, quiet, tr.Output, "network steps never carry state")
}

// #endregion session
