package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/abspool/cmd/abspool/handlers"
)

// Provision returns the provision command.
func Provision(opts *handlers.Options) *cobra.Command {
	var args handlers.ProvisionArgs

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Request hosts from ABS and add them to the inventory",
		Long: `Provision submits one ABS job for the requested platforms and polls until
the hosts are allocated. Each host is added to ssh_nodes, or winrm_nodes for
Windows platforms, with the job id recorded in its facts.

Examples:
  abspool provision --platform centos-7-x86_64
  abspool provision -p centos-7-x86_64=2 -p win-2019-x86_64 -i ./spec/fixtures/litmus_inventory.yaml`,
		Args: validationArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), *opts, args)
		},
	}

	cmd.Flags().StringArrayVarP(&args.Platforms, "platform", "p", nil, "Platform to provision, as name or name=count (repeatable)")
	cmd.Flags().StringVarP(&args.Inventory, "inventory", "i", "", "Inventory file, or project directory (default: working directory)")
	cmd.Flags().StringVar(&args.Vars, "vars", "", "YAML mapping attached as vars to every new host")

	return cmd
}
