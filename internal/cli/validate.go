package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersantana/desim/config"
)

// NewValidateCommand builds the `desim validate` subcommand: it loads a
// run config and constructs the engine without simulating, surfacing
// DuplicateObjectName and unknown-project errors before a real run.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a run config without simulating",
		Args:  cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return NewExitError(ExitFailure, fmt.Sprintf("config invalid: %v", err))
	}
	_ = eng

	fmt.Fprintf(cmd.OutOrStdout(), "config valid: project=%q timeMax=%g\n", cfg.Project, cfg.TimeMax)
	return nil
}
