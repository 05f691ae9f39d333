package config

import (
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/attractor-machine/internal/encoding"
	"github.com/danielpatrickdp/attractor-machine/internal/hopfield"
	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
)

func loadFamily(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(filepath.Join("..", "..", "configs", "family.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_Family(t *testing.T) {
	cfg := loadFamily(t)
	if cfg.Name != "family" || len(cfg.States) != 5 || len(cfg.Relations) != 3 {
		t.Fatalf("unexpected header %+v", cfg)
	}

	def, err := cfg.Definition()
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if len(def.Transitions) != 10 {
		t.Fatalf("expected 10 transitions, got %d", len(def.Transitions))
	}
	first, last := def.Transitions[0], def.Transitions[9]
	if first != (minterm.Transition{From: "maomao", Relation: "FATHER_OF", To: "lakan"}) {
		t.Fatalf("unexpected first transition %+v", first)
	}
	if last != (minterm.Transition{From: "lakan", Relation: "BULLIES", To: "jinshi"}) {
		t.Fatalf("unexpected last transition %+v", last)
	}

	mc, err := cfg.MachineConfig()
	if err != nil {
		t.Fatalf("MachineConfig: %v", err)
	}
	if mc.Gate.MaxDistance != 0.125 {
		t.Fatalf("similarity 0.75 should map to 0.125, got %f", mc.Gate.MaxDistance)
	}
	if mc.Encoding.Dimension != 64 || mc.Network.Memory.Mode != hopfield.Synchronous {
		t.Fatalf("unexpected machine config %+v", mc)
	}
	if cfg.Journal.Path != "family-journal.db" {
		t.Fatalf("unexpected journal path %q", cfg.Journal.Path)
	}
}

func TestFamilyScenario(t *testing.T) {
	o, err := loadFamily(t).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	walk := []struct{ rel, out string }{
		{"FATHER_OF", "Lakan"},
		{"LIKES", "Maomao"},
		{"BULLIES", "Jinshi"},
		{"FATHER_OF", "Emperor"},
		{"LIKES", "Gyokugou"},
		{"LIKES", "Maomao"},
		{"LIKES", "Gyokugou"},
		{"BULLIES", "Jinshi"},
	}
	for i, w := range walk {
		res, err := o.Step(w.rel)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if !res.Recognized || res.Output != w.out {
			t.Fatalf("step %d %s: got %+v, want %s", i, w.rel, res, w.out)
		}
	}

	res, err := o.Step("BULLIES")
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Recognized {
		t.Fatal("jinshi has no BULLIES edge")
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
states: [a, b]
relations: [go]
outputs: {a: x, b: y}
transitions:
  - {from: a, relation: go, to: b}
memory:
  mode: async
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	mc, err := cfg.MachineConfig()
	if err != nil {
		t.Fatalf("MachineConfig: %v", err)
	}
	want := orchestrator.DefaultConfig()
	want.Network.Memory.Mode = hopfield.Asynchronous
	if mc != want {
		t.Fatalf("unset fields should keep defaults:\n got %+v\nwant %+v", mc, want)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("expected default level info, got %q", cfg.Logging.Level)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("states: [a\n")); err == nil {
		t.Fatal("expected a parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected a read error")
	}

	cfg, _ := Parse([]byte("memory: {mode: sideways}"))
	if _, err := cfg.MachineConfig(); err == nil {
		t.Fatal("expected an update mode error")
	}

	cfg, _ = Parse([]byte("recognition: {max_distance: 1.5}"))
	if _, err := cfg.MachineConfig(); err == nil {
		t.Fatal("expected a max distance error")
	}

	cfg, _ = Parse([]byte(`
relations: [go]
edges:
  stop: [[a, b]]
`))
	var u *encoding.UnknownLabelError
	if _, err := cfg.Definition(); !errors.As(err, &u) || u.Label != "stop" {
		t.Fatalf("expected unknown relation in edges, got %v", err)
	}

	cfg, _ = Parse([]byte(`
relations: [go]
edges:
  go: [[a, b, c]]
`))
	if _, err := cfg.Definition(); err == nil {
		t.Fatal("expected a malformed edge error")
	}
}

func TestLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.Logger(false)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("info logger should not enable debug")
	}

	logger, err = cfg.Logger(true)
	if err != nil {
		t.Fatalf("Logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("verbose logger should enable debug")
	}

	cfg.Logging.Level = "chatty"
	if _, err := cfg.Logger(false); err == nil {
		t.Fatal("expected a level error")
	}
}
