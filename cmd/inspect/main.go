package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attractor-machine/internal/config"
	"github.com/danielpatrickdp/attractor-machine/internal/eval"
	"github.com/danielpatrickdp/attractor-machine/internal/graph"
	"github.com/danielpatrickdp/attractor-machine/internal/logging"
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
)

var (
	configPath  string
	journalPath string
	jsonOut     bool
	verbose     bool
	logger      *zap.Logger

	sweepLevels []float64
	sweepTrials int
	sweepSeed   uint64

	tailRun  string
	tailLast int
)

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "Inspect a machine, its recall margin and its step journal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var machineCmd = &cobra.Command{
	Use:   "machine",
	Short: "Show layer sizes and codebook overlaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := build()
		if err != nil {
			return err
		}
		return runMachine(cmd.OutOrStdout(), o)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Measure recall under probe noise",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := build()
		if err != nil {
			return err
		}
		ec := eval.DefaultEvalConfig()
		if len(sweepLevels) > 0 {
			ec.Levels = sweepLevels
		}
		ec.Trials = sweepTrials
		ec.Seed = sweepSeed
		res, err := runSweep(cmd.Context(), o, ec)
		if err != nil {
			return err
		}
		if err := printSweep(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.Passed {
			return fmt.Errorf("sweep failed: %s", res.Reason)
		}
		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List runs recorded in the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()
		return runRuns(cmd.OutOrStdout(), j)
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show the last steps of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()
		return runTail(cmd.OutOrStdout(), j, tailRun, tailLast)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/three-state.yaml", "machine file")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "step journal path (overrides the config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	sweepCmd.Flags().Float64SliceVar(&sweepLevels, "levels", nil, "noise fractions (default 0,0.02,0.05)")
	sweepCmd.Flags().IntVar(&sweepTrials, "trials", eval.DefaultEvalConfig().Trials, "noisy probes per transition and level")
	sweepCmd.Flags().Uint64Var(&sweepSeed, "seed", eval.DefaultEvalConfig().Seed, "noise seed")

	tailCmd.Flags().StringVar(&tailRun, "run", "", "run id (default: most recent run)")
	tailCmd.Flags().IntVar(&tailLast, "last", 20, "show N most recent steps")

	rootCmd.AddCommand(machineCmd, sweepCmd, runsCmd, tailCmd)
}
// #endregion main

// #region setup
func build() (*orchestrator.Orchestrator, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Build(orchestrator.WithLogger(logger))
}

func openJournal() (*logging.Journal, error) {
	path := journalPath
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no journal: pass --journal or set journal.path")
	}
	return logging.OpenJournal(path)
}
// #endregion setup

// #region machine
type machineReport struct {
	Stats       orchestrator.Stats `json:"stats"`
	Labels      []string           `json:"labels"`
	Overlaps    [][]float64        `json:"overlaps"`
	Start       string             `json:"start"`
	Reachable   []string           `json:"reachable"`
	Unreachable []string           `json:"unreachable,omitempty"`
	Undefined   []graph.Pair       `json:"undefined,omitempty"`
}

func runMachine(out io.Writer, o *orchestrator.Orchestrator) error {
	def := o.Definition()
	diagram, err := graph.New(def.States, def.Relations, def.Transitions)
	if err != nil {
		return err
	}

	book := o.Codebook()
	rep := machineReport{
		Stats:       o.Stats(),
		Labels:      book.Labels(),
		Overlaps:    book.Overlaps(),
		Start:       def.Start,
		Reachable:   diagram.Walk(def.Start, 0).States,
		Unreachable: diagram.Unreachable(def.Start),
		Undefined:   diagram.Undefined(),
	}
	if jsonOut {
		return printJSON(out, rep)
	}

	s := rep.Stats
	fmt.Fprintf(out, "Machine  states=%d relations=%d transitions=%d\n", s.States, s.Relations, s.Transitions)
	fmt.Fprintf(out, "Encoding D=%d exact=%d max_overlap=%.4f\n\n", s.Dimension, s.ExactBasis, s.MaxOverlap)

	fmt.Fprintf(out, "%-14s %6s %6s %8s %9s %6s\n", "LAYER", "IN", "OUT", "PATTERNS", "RECURRENT", "LOAD")
	fmt.Fprintln(out, strings.Repeat("-", 54))
	for _, l := range s.Layers {
		fmt.Fprintf(out, "%-14s %6d %6d %8d %9v %6.3f\n", l.Name, l.InputDim, l.OutputDim, l.Patterns, l.Recurrent, l.CapacityRatio)
	}

	fmt.Fprintf(out, "\nOverlaps (cos)\n%-10s", "")
	for _, l := range rep.Labels {
		fmt.Fprintf(out, " %8s", truncate(l, 8))
	}
	fmt.Fprintln(out)
	for i, row := range rep.Overlaps {
		fmt.Fprintf(out, "%-10s", truncate(rep.Labels[i], 10))
		for _, v := range row {
			fmt.Fprintf(out, " %8.3f", v)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\nReachable from %s: %s\n", rep.Start, strings.Join(rep.Reachable, ", "))
	if len(rep.Unreachable) > 0 {
		fmt.Fprintf(out, "Unreachable: %s\n", strings.Join(rep.Unreachable, ", "))
	}
	fmt.Fprintf(out, "Undefined inputs (fault on step): %d\n", len(rep.Undefined))
	for _, p := range rep.Undefined {
		fmt.Fprintf(out, "  %s -%s->\n", p.From, p.Relation)
	}
	return nil
}
// #endregion machine

// #region sweep
func runSweep(ctx context.Context, o *orchestrator.Orchestrator, ec eval.EvalConfig) (eval.EvalResult, error) {
	cases, err := eval.CasesFromTransitions(o, o.Definition().Transitions)
	if err != nil {
		return eval.EvalResult{}, err
	}
	return eval.NewEvalHarness(ec).Run(ctx, o, cases)
}

func printSweep(out io.Writer, res eval.EvalResult) error {
	if jsonOut {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "%-8s %6s %9s %9s %7s %5s\n", "NOISE", "FLIPS", "ATTEMPTS", "SUCCESSES", "RATE", "PASS")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, l := range res.Levels {
		fmt.Fprintf(out, "%-8.3f %6d %9d %9d %7.3f %5v\n", l.Level, l.Flips, l.Attempts, l.Successes, l.Rate, l.Pass)
	}
	fmt.Fprintf(out, "\npassed=%v %s\n", res.Passed, res.Reason)
	return nil
}
// #endregion sweep

// #region journal
func runRuns(out io.Writer, j *logging.Journal) error {
	runs, err := j.Runs()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}
	fmt.Fprintf(out, "%-38s %6s %10s %8s %6s  %s\n", "RUN", "STEPS", "RECOGNIZED", "REJECTED", "RESETS", "LAST")
	fmt.Fprintln(out, strings.Repeat("-", 96))
	for _, r := range runs {
		fmt.Fprintf(out, "%-38s %6d %10d %8d %6d  %s\n", r.RunID, r.Steps, r.Recognized, r.Rejected, r.Resets, r.LastAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runTail(out io.Writer, j *logging.Journal, runID string, last int) error {
	if runID == "" {
		runs, err := j.Runs()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "no runs found")
			return nil
		}
		runID = runs[len(runs)-1].RunID
	}

	steps, err := j.ListSteps(runID, last)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(out, steps)
	}

	fmt.Fprintf(out, "Run %s\n", runID)
	fmt.Fprintf(out, "%-5s %-6s %-12s %-12s %-12s %-8s %5s %5s  %s\n", "ID", "KIND", "FROM", "RELATION", "TO", "OUTPUT", "DIST", "ITER", "DECISION")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, s := range steps {
		to := s.To
		if !s.Recognized {
			to = "~" + s.Nearest
		}
		fmt.Fprintf(out, "%-5d %-6s %-12s %-12s %-12s %-8s %5d %5d  %s %s\n",
			s.ID, s.Kind, truncate(s.From, 12), truncate(s.Relation, 12), truncate(to, 12), truncate(s.Output, 8),
			s.Distance, s.Iterations, s.Decision, s.Reason)
	}
	return nil
}
// #endregion journal

// #region helpers
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
// #endregion helpers
