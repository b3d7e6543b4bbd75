package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wavelang/wavetest/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Diff bool
}

// HistoryDiff is the JSON payload for --diff.
type HistoryDiff struct {
	Older   store.RunMeta         `json:"older"`
	Newer   store.RunMeta         `json:"newer"`
	Changes []store.OutcomeChange `json:"changes"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <db>",
		Short: "Inspect recorded conformance runs",
		Long: `List the runs recorded with 'run --record', newest first.

With --diff, compare the two most recent runs and print the fixtures
whose outcome changed. An unchanged fixture set against an unchanged
compiler should produce no changes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Diff, "diff", false, "compare the two most recent runs")

	return cmd
}

func showHistory(opts *HistoryOptions, dbPath string, cmd *cobra.Command) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "opening history database", err)
	}
	defer st.Close()

	if opts.Diff {
		return diffHistory(opts, st, cmd)
	}

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "listing runs", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: runs})
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %s  %d fixture(s)\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Compiler, r.Fixtures)
	}
	return nil
}

func diffHistory(opts *HistoryOptions, st *store.Store, cmd *cobra.Command) error {
	older, newer, changes, err := st.DiffLatest(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "diffing runs", err)
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), CLIResponse{
			Status: "ok",
			Data:   HistoryDiff{Older: older, Newer: newer, Changes: changes},
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Comparing %s (%s)\n", older.ID, older.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "  against %s (%s)\n\n", newer.ID, newer.StartedAt.Format(time.RFC3339))

	if len(changes) == 0 {
		fmt.Fprintln(w, "No outcome changes.")
		return nil
	}
	for _, c := range changes {
		switch {
		case c.Before == "":
			fmt.Fprintf(w, "  %s: (new) → %s\n", c.Fixture, c.After)
		case c.After == "":
			fmt.Fprintf(w, "  %s: %s → (removed)\n", c.Fixture, c.Before)
		default:
			fmt.Fprintf(w, "  %s: %s → %s\n", c.Fixture, c.Before, c.After)
		}
	}
	fmt.Fprintf(w, "\n%d change(s)\n", len(changes))
	return nil
}
