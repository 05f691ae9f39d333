// Package eval measures how well a machine recalls its transitions from
// corrupted probes.
package eval

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/attractor-machine/internal/minterm"
	"github.com/danielpatrickdp/attractor-machine/internal/vector"
)

// #region eval-harness
// EvalHarness runs noise sweeps.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run flips round(level·len(probe)) random components of every case's probe,
// Trials times per level, and counts recalls that were recognized as the
// expected state. Each (level, trial) task has its own seeded generator, so
// results do not depend on scheduling.
func (h *EvalHarness) Run(ctx context.Context, r Recaller, cases []Case) (EvalResult, error) {
	if len(cases) == 0 {
		return EvalResult{}, fmt.Errorf("eval: no cases")
	}
	if h.config.Trials <= 0 {
		return EvalResult{}, fmt.Errorf("eval: trials must be positive, got %d", h.config.Trials)
	}
	for _, l := range h.config.Levels {
		if l < 0 || l > 1 {
			return EvalResult{}, fmt.Errorf("eval: noise level %.4f outside [0, 1]", l)
		}
	}

	successes := make([][]int, len(h.config.Levels))
	for i := range successes {
		successes[i] = make([]int, h.config.Trials)
	}

	g, gctx := errgroup.WithContext(ctx)
	if h.config.Workers > 0 {
		g.SetLimit(h.config.Workers)
	}
	for li, level := range h.config.Levels {
		for trial := 0; trial < h.config.Trials; trial++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := rand.New(rand.NewPCG(h.config.Seed, uint64(li)<<32|uint64(trial)))
				ok := 0
				for _, c := range cases {
					k := flips(level, len(c.Probe))
					res, err := r.Resolve(vector.Perturb(c.Probe, k, rng))
					if err != nil {
						return fmt.Errorf("eval %s at %.2f: %w", c.Name, level, err)
					}
					if res.Recognized() && res.Match.Label == c.Want {
						ok++
					}
				}
				successes[li][trial] = ok
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return EvalResult{}, err
	}

	result := EvalResult{Passed: true}
	var failReasons []string
	for li, level := range h.config.Levels {
		total := 0
		for _, n := range successes[li] {
			total += n
		}
		attempts := h.config.Trials * len(cases)
		lr := LevelResult{
			Level:     level,
			Flips:     flips(level, len(cases[0].Probe)),
			Attempts:  attempts,
			Successes: total,
			Rate:      float64(total) / float64(attempts),
		}
		lr.Pass = lr.Rate >= h.config.MinSuccessRate
		result.Levels = append(result.Levels, lr)
		result.Metrics = append(result.Metrics, EvalMetric{
			Name:  fmt.Sprintf("recall_rate_noise_%.2f", level),
			Value: lr.Rate,
			Pass:  lr.Pass,
		})
		if !lr.Pass {
			result.Passed = false
			failReasons = append(failReasons, fmt.Sprintf("rate %.4f at noise %.2f below %.4f", lr.Rate, level, h.config.MinSuccessRate))
		}
	}

	result.Reason = "all checks passed"
	if !result.Passed {
		result.Reason = fmt.Sprintf("eval failed: %s", failReasons[0])
		if len(failReasons) > 1 {
			result.Reason = fmt.Sprintf("eval failed: %d checks: %s", len(failReasons), failReasons[0])
		}
	}
	return result, nil
}
// #endregion eval-harness

// #region cases
// CasesFromTransitions builds one case per transition.
func CasesFromTransitions(p Prober, transitions []minterm.Transition) ([]Case, error) {
	cases := make([]Case, 0, len(transitions))
	for _, t := range transitions {
		probe, err := p.Probe(t.From, t.Relation)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", t.Address(), err)
		}
		cases = append(cases, Case{Name: t.Address().String(), Probe: probe, Want: t.To})
	}
	return cases, nil
}
// #endregion cases

// #region helpers
func flips(level float64, n int) int {
	return int(math.Round(level * float64(n)))
}
// #endregion helpers
