package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danielpatrickdp/attractor-machine/internal/config"
)

func TestREPL(t *testing.T) {
	cfg, err := config.Load("../../configs/three-state.yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	o, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	in := strings.NewReader("state\nLIKES\nFATHER_OF\nLIKES\nBULLIES\nreset S0\nLIKES\nstats\nquit\nLIKES\n")
	var out bytes.Buffer
	if err := repl(o, in, &out); err != nil {
		t.Fatalf("repl: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"state=S0 output=A",
		"[step-1] output=B state=S1",
		"[step-2] output=C state=S2",
		"[step-3] unrecognized: nearest=S0 distance=32",
		"error: machine is faulted",
		"[step-5] output=B state=S1",
		"status=ready states=3 relations=3 transitions=3 dimension=64",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "[step-6]") {
		t.Error("commands after quit should not run")
	}
}
