package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavelang/wavetest/internal/fixture"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	ConfigPath string
	Root       string
}

// ListEntry is one discovered fixture in JSON output.
type ListEntry struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Stimulus     string `json:"stimulus"`
	KnownTimeout bool   `json:"known_timeout,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered fixtures without running them",
		Long: `List the fixtures the run command would execute, in discovery order,
with their stimulus kinds. Discovery is read-only.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFixtures(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "config file")
	cmd.Flags().StringVar(&opts.Root, "root", ".", "project root")

	return cmd
}

func listFixtures(opts *ListOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.Root, opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	fixtures, err := fixture.Discover(opts.Root, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "discovering fixtures", err)
	}

	if opts.Format == "json" {
		entries := make([]ListEntry, 0, len(fixtures))
		for _, fx := range fixtures {
			entries = append(entries, ListEntry{
				Name:         fx.Name,
				Path:         fx.Path,
				Stimulus:     fx.Stimulus.Kind.String(),
				KnownTimeout: fx.KnownTimeout,
			})
		}
		return writeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: entries})
	}

	w := cmd.OutOrStdout()
	for _, fx := range fixtures {
		line := fx.Name
		if fx.Stimulus.Kind != fixture.StimulusNone {
			line += fmt.Sprintf("  [%s]", fx.Stimulus.Kind)
		}
		if fx.KnownTimeout {
			line += "  [known-timeout]"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d fixture(s)\n", len(fixtures))
	return nil
}
