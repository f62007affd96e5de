// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/abspool/cmd/abspool/handlers"
	"github.com/imamik/abspool/internal/abs"
)

// Root returns the root command for the abspool CLI.
//
// Errors are not printed by cobra: every failure ends up as the JSON error
// object on stdout.
func Root() *cobra.Command {
	opts := &handlers.Options{}

	cmd := &cobra.Command{
		Use:   "abspool",
		Short: "Provision and release ABS test hosts for litmus inventories",
		Long: `abspool requests test hosts from ABS, waits until they are allocated and
records them in a litmus inventory. Teardown releases the job that created a
host and removes every host of that job from the inventory.

Results are printed as one JSON object on stdout. Progress is logged to stderr.`,
		Args:          validationArgs(cobra.NoArgs),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", handlers.FormatJSON, "Output format: json or text")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log every poll attempt")
	cmd.PersistentFlags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit (default: $ABS_METRICS_TEXTFILE)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return abs.Wrap(abs.KindValidation, "invalid arguments", err)
	})

	cmd.AddCommand(Provision(opts))
	cmd.AddCommand(Teardown(opts))
	cmd.AddCommand(Task(opts))
	cmd.AddCommand(Version())

	return cmd
}

// validationArgs classifies positional argument errors, including unknown
// subcommands, as validation errors.
func validationArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return abs.Wrap(abs.KindValidation, "invalid arguments", check(cmd, args))
	}
}
