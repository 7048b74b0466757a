package commands

import (
	"github.com/spf13/cobra"

	"github.com/bunsenite/bunsenite/pkg/router"
)

func (a *app) newValidateCommand() *cobra.Command {
	var opts router.Validate

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a configuration without evaluating it",
		Long: `Validate a configuration file without evaluating it.

This command checks:
  - Syntax validity
  - References to undefined names and functions
  - CUE type conflicts and schema conformance (--schema)`,
		Example: `  # Validate a config file
  bunsenite validate config.cue

  # Validate against a schema
  bunsenite validate service.cue --schema schema.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.File = args[0]
			return a.dispatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Lang, "lang", "", "configuration language (cue, starlark, hcl)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file to unify with (CUE sources only)")

	return cmd
}
