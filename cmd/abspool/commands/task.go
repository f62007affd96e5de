package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/abspool/cmd/abspool/handlers"
)

// Task returns the task command.
func Task(opts *handlers.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "task",
		Short: "Run provision or tear_down with parameters read from stdin",
		Long: `Task reads a JSON or YAML object from stdin and runs one action:

  {"action": "provision", "platform": "centos-7-x86_64", "inventory": "/path"}
  {"action": "tear_down", "node_name": "abc123.example.com"}

platform is a name or a mapping of name to count. vars is optional YAML
attached to every provisioned host.`,
		Args: validationArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Task(cmd.Context(), *opts)
		},
	}
}
