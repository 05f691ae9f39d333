package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/attractor-machine/internal/config"
	"github.com/danielpatrickdp/attractor-machine/internal/logging"
	"github.com/danielpatrickdp/attractor-machine/internal/orchestrator"
	"github.com/danielpatrickdp/attractor-machine/internal/replay"
)

var (
	configPath  string
	fixturePath string
	journalPath string
	runID       string
	verbose     bool
	logger      *zap.Logger
)

// errDiverged makes the process exit non-zero without repeating the table.
var errDiverged = errors.New("replay diverged")

// #region main
func main() {
	if err := rootCmd.Execute(); err != nil {
		if err != errDiverged {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a fixture or a recorded run against a machine",
	Long: `Fixture mode: replay --config machine.yaml --fixture steps.json
Journal mode: replay --config machine.yaml --journal steps.db --run <id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if (fixturePath == "") == (journalPath == "") {
			return fmt.Errorf("pass exactly one of --fixture and --journal")
		}
		var err error
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger = zap.NewNop()
		}
		return err
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
		o, err := cfg.Build(orchestrator.WithLogger(logger))
		if err != nil {
			return err
		}

		steps, err := loadSteps()
		if err != nil {
			return err
		}
		if printComparison(cmd.OutOrStdout(), replay.Replay(o, steps)) {
			return errDiverged
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "configs/three-state.yaml", "machine file")
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON (fixture mode)")
	rootCmd.Flags().StringVar(&journalPath, "journal", "", "path to a step journal (journal mode)")
	rootCmd.Flags().StringVar(&runID, "run", "", "run to replay in journal mode (default: most recent)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
// #endregion main

// #region load
func loadSteps() ([]replay.Step, error) {
	if fixturePath != "" {
		f, err := replay.LoadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		return f.ToSteps(), nil
	}

	j, err := logging.OpenJournal(journalPath)
	if err != nil {
		return nil, err
	}
	defer j.Close()

	id := runID
	if id == "" {
		runs, err := j.Runs()
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, fmt.Errorf("journal %s has no runs", journalPath)
		}
		id = runs[len(runs)-1].RunID
	}
	entries, err := j.ListSteps(id, 0)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return replay.FromJournal(entries), nil
}
// #endregion load

// #region output
// printComparison writes one row per step and reports whether any step
// diverged from its expectation.
func printComparison(out io.Writer, results []replay.ReplayResult) bool {
	fmt.Fprintf(out, "%-14s| %-8s| %-10s| %-10s| %s\n", "Step", "Action", "State", "Output", "Match")
	fmt.Fprintf(out, "%s+%s+%s+%s+%s\n",
		strings.Repeat("-", 14), strings.Repeat("-", 9), strings.Repeat("-", 11), strings.Repeat("-", 11), "------")

	for _, r := range results {
		match := "OK"
		if r.Mismatch != "" {
			match = "DIFF " + r.Mismatch
		}
		fmt.Fprintf(out, "%-14s| %-8s| %-10s| %-10s| %s\n", r.ID, r.Action, r.State, r.Output, match)
	}

	s := replay.Summarize(results)
	fmt.Fprintf(out, "\nSummary: %d total, %d recognized, %d rejected, %d resets, %d errors, %d diverge\n",
		s.Total, s.Recognized, s.Rejected, s.Resets, s.Errors, s.Mismatches)
	return s.Mismatches > 0
}
// #endregion output
