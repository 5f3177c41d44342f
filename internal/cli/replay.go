package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersantana/desim/checkpoint"
)

// ReplayOptions holds flags for `desim replay`.
type ReplayOptions struct {
	*RootOptions
	Database string
}

// NewReplayCommand builds the `desim replay` subcommand: it lists the
// checkpoints written by a prior `desim run` whose config sets
// checkpointDbPath, in simulated-time order.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "List checkpoints recorded by a prior run",
		Long: `List the checkpoints a prior desim run wrote to its SQLite
checkpoint store, in simulated-time order.

Example:
  desim replay --db ./run.checkpoints.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the checkpoint SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	cp, err := checkpoint.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open checkpoint store", err)
	}
	defer cp.Close()

	checkpoints, err := cp.List()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list checkpoints", err)
	}
	if len(checkpoints) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no checkpoints recorded")
		return nil
	}

	for _, c := range checkpoints {
		fmt.Fprintf(cmd.OutOrStdout(), "t=%-10.3f id=%s\n", c.SimulatedTime, c.ID)
	}
	return nil
}
