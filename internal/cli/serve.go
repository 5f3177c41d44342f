package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ersantana/desim/config"
	"github.com/ersantana/desim/serve"
)

// ServeOptions holds flags for `desim serve`.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand builds the `desim serve` subcommand: it runs a
// simulation to completion while exposing its live state over a
// WebSocket viewer, per spec.md §1's External Interfaces.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve <config.yaml>",
		Short: "Run a simulation with a live WebSocket viewer",
		Args:  cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runServe(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8090", "HTTP listen address for the viewer WebSocket")
	return cmd
}

func runServe(opts *ServeOptions, path string, cmd *cobra.Command) error {
	cfg, err := config.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	srv := serve.New(eng)
	go srv.Run()

	mux := http.NewServeMux()
	mux.Handle("/ws", srv.Handler())

	fmt.Fprintf(cmd.OutOrStdout(), "serving viewer on %s/ws\n", opts.Addr)

	go func() {
		batches, simErr := eng.Simulate(cfg.TimeMax)
		_ = batches
		if simErr != nil {
			srv.BroadcastTerminated(eng.Time(), simErr.Error())
			return
		}
		srv.BroadcastTerminated(eng.Time(), "run complete")
	}()

	return http.ListenAndServe(opts.Addr, mux)
}
