package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attractor-machine/internal/config"
	"github.com/danielpatrickdp/attractor-machine/internal/logging"
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
)

var (
	configPath  string
	journalPath string
	runID       string
	verbose     bool
	logger      *zap.Logger
)

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "controller",
	Short: "Drive a Moore machine interactively",
	Long: `Builds the machine described by --config and reads commands from stdin.
A relation name steps the machine; "reset <state>", "state", "stats",
"history" and "quit" are also understood.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = cfg.Logger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		opts := []orchestrator.Option{orchestrator.WithLogger(logger), orchestrator.WithRunID(runID)}
		path := journalPath
		if path == "" {
			path = cfg.Journal.Path
		}
		if path != "" {
			j, err := logging.OpenJournal(path)
			if err != nil {
				return fmt.Errorf("failed to open journal: %w", err)
			}
			defer j.Close()
			opts = append(opts, orchestrator.WithJournal(j))
		}

		o, err := cfg.Build(opts...)
		if err != nil {
			return err
		}

		name := cfg.Name
		if name == "" {
			name = configPath
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Machine %s ready. Run %s\n", name, o.RunID())
		fmt.Fprintf(cmd.OutOrStdout(), "  relations: %s\n", strings.Join(o.Definition().Relations, ", "))
		return repl(o, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/three-state.yaml", "machine file")
	rootCmd.PersistentFlags().StringVar(&journalPath, "journal", "", "step journal path (overrides the config)")
	rootCmd.PersistentFlags().StringVar(&runID, "run-id", "", "journal run label (default: random UUID)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
// #endregion main

// #region repl
func repl(o *orchestrator.Orchestrator, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	stepNum := 0

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch cmd := fields[0]; cmd {
		case "quit", "exit":
			return nil
		case "state":
			if cur, ok := o.Current(); ok {
				fmt.Fprintf(out, "state=%s output=%s\n", cur, mustOutput(o, cur))
			} else {
				fmt.Fprintf(out, "no recognized state (%s)\n", o.Status())
			}
		case "reset":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: reset <state>")
				continue
			}
			if err := o.Reset(fields[1]); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "state=%s output=%s\n", fields[1], mustOutput(o, fields[1]))
		case "stats":
			printStats(out, o.Stats())
		case "history":
			for _, r := range o.History() {
				label := r.Label
				if label == "" {
					label = "(unrecognized)"
				}
				fmt.Fprintf(out, "%s  %-16s %s\n", shortID(r.VersionID), label, r.CreatedAt.Format("15:04:05.000"))
			}
		default:
			stepNum++
			res, err := o.Step(cmd)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if res.Recognized {
				fmt.Fprintf(out, "[step-%d] output=%s state=%s iterations=%d\n", stepNum, res.Output, res.State, res.Iterations)
				continue
			}
			f := res.Failure
			fmt.Fprintf(out, "[step-%d] unrecognized: nearest=%s distance=%d converged=%v\n", stepNum, f.Nearest, f.Distance, f.Converged)
			fmt.Fprintf(out, "  raw=%s\n", f.Raw)
			fmt.Fprintln(out, "  machine faulted; use reset <state>")
		}
	}
}
// #endregion repl

// #region helpers
func printStats(out io.Writer, s orchestrator.Stats) {
	fmt.Fprintf(out, "status=%s states=%d relations=%d transitions=%d dimension=%d\n",
		s.Status, s.States, s.Relations, s.Transitions, s.Dimension)
	fmt.Fprintf(out, "exact_basis=%d max_overlap=%.4f steps=%d recognized=%d rejected=%d resets=%d\n",
		s.ExactBasis, s.MaxOverlap, s.Steps, s.Recognized, s.Rejected, s.Resets)
	for _, l := range s.Layers {
		fmt.Fprintf(out, "  %-12s %4d -> %-4d patterns=%-4d recurrent=%-5v load=%.3f\n",
			l.Name, l.InputDim, l.OutputDim, l.Patterns, l.Recurrent, l.CapacityRatio)
	}
}

func mustOutput(o *orchestrator.Orchestrator, label string) string {
	out, _ := o.Output(label)
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
// #endregion helpers
