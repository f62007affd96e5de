package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/abspool/cmd/abspool/handlers"
)

// Teardown returns the teardown command.
func Teardown(opts *handlers.Options) *cobra.Command {
	var args handlers.TeardownArgs

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Release a host's ABS job and remove its hosts from the inventory",
		Long: `Teardown looks the node up in the inventory, releases the ABS job that
created it and removes every host of that job, not only the named one.

A missing inventory file is not an error: the release is still sent and
nothing is removed.

Example:
  abspool teardown --node abc123.example.com`,
		Args: validationArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Teardown(cmd.Context(), *opts, args)
		},
	}

	cmd.Flags().StringVarP(&args.Node, "node", "n", "", "Hostname of a provisioned node (required)")
	cmd.Flags().StringVarP(&args.Inventory, "inventory", "i", "", "Inventory file, or project directory (default: working directory)")
	cmd.Flags().BoolVar(&args.Confirm, "confirm", false, "Ask before releasing the job")

	return cmd
}
