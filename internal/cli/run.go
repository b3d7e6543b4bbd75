package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wavelang/wavetest/internal/config"
	"github.com/wavelang/wavetest/internal/harness"
	"github.com/wavelang/wavetest/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Root       string
	Compiler   string        // overrides the configured compiler path
	Timeout    time.Duration // overrides the configured run timeout
	Record     string        // history database to append this run to
}

// RunData is the JSON payload for a completed run.
type RunData struct {
	RunID   string                  `json:"run_id,omitempty"`
	Results []harness.FixtureResult `json:"results"`
	Counts  harness.Counts          `json:"counts"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the conformance suite",
		Long: `Run the Wave conformance suite.

Discovers fixtures under the test directory, executes each one against
the compiler binary, classifies the outcome, and prints a categorized
summary.

Exit codes:
  0 - No FAIL or TIMEOUT outcomes
  1 - One or more fixtures failed or timed out
  2 - Command error (missing compiler, bad paths, invalid config)

Examples:
  wavetest run
  wavetest run --root ~/src/wave --compiler target/release/wavec
  wavetest run --timeout 10s --format json
  wavetest run --record .wavetest-history.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConformance(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "config file (default <root>/"+config.DefaultFileName+")")
	cmd.Flags().StringVar(&opts.Root, "root", ".", "project root the compiler and fixture paths resolve against")
	cmd.Flags().StringVar(&opts.Compiler, "compiler", "", "compiler binary (overrides config)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-fixture timeout (overrides config)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "append this run to a history database")

	return cmd
}

func runConformance(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.Root, opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Compiler != "" {
		cfg.Compiler = opts.Compiler
	}
	if opts.Timeout > 0 {
		cfg.RawRunTimeout = opts.Timeout.String()
	}

	// Progress lines would corrupt JSON output, so they are suppressed
	// in that mode; the envelope carries the full result set instead.
	progress := cmd.OutOrStdout()
	if opts.Format == "json" {
		progress = io.Discard
	}

	h := harness.New(cfg, harness.Options{
		Root:   opts.Root,
		Out:    progress,
		Logger: newLogger(cmd.ErrOrStderr(), opts.Verbose),
	})

	if err := h.Preflight(); err != nil {
		return WrapExitError(ExitCommandError, "preflight", err)
	}

	started := time.Now()
	rs, err := h.Run(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "running fixtures", err)
	}

	var runID string
	if opts.Record != "" {
		runID, err = recordRun(cmd, opts.Record, cfg.Compiler, started, rs)
		if err != nil {
			return WrapExitError(ExitCommandError, "recording run", err)
		}
	}

	counts := rs.Buckets().Counts()

	if opts.Format == "json" {
		if err := writeRunJSON(cmd.OutOrStdout(), runID, rs, counts); err != nil {
			return err
		}
	} else {
		h.Reporter().Summary(rs)
		if runID != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded as run %s\n", runID)
		}
	}

	if !counts.Clean() {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d fixture(s) failed, %d timed out", counts.Fail, counts.Timeout))
	}
	return nil
}

// loadConfig resolves the config file. An explicit path must exist; the
// default location under the project root may be absent.
func loadConfig(root, path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	p := filepath.Join(root, config.DefaultFileName)
	if _, err := os.Stat(p); err != nil {
		return config.Default(), nil
	}
	return config.Load(p)
}

// newLogger returns a debug-level stderr logger in verbose mode and a
// discard logger otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func recordRun(cmd *cobra.Command, dbPath, compiler string, started time.Time, rs *harness.ResultSet) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()
	return st.RecordRun(cmd.Context(), compiler, started, rs.Results())
}

func writeRunJSON(w io.Writer, runID string, rs *harness.ResultSet, counts harness.Counts) error {
	resp := CLIResponse{
		Status: "ok",
		Data:   RunData{RunID: runID, Results: rs.Results(), Counts: counts},
	}
	if !counts.Clean() {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    "E_CONFORMANCE",
			Message: fmt.Sprintf("%d fixture(s) failed, %d timed out", counts.Fail, counts.Timeout),
		}
	}
	return writeJSON(w, resp)
}
