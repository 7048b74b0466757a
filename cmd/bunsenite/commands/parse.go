package commands

import (
	"github.com/spf13/cobra"

	"github.com/bunsenite/bunsenite/pkg/router"
)

func (a *app) newParseCommand() *cobra.Command {
	var opts router.Parse

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse and evaluate a configuration file",
		Long: `Parse and evaluate a configuration file and print the result.

The language is chosen from the file extension unless --lang is given.
With --schema, a CUE program is unified with the schema before export.
Starlark and HCL results are checked against it after evaluation.
With --policy, the result is checked against Rego deny and warn rules.`,
		Example: `  # Parse and evaluate a config file
  bunsenite parse config.cue

  # Pretty-print the output JSON
  bunsenite parse config.cue --pretty

  # Evaluate a Starlark program and print YAML
  bunsenite parse deploy.star --format yaml

  # Check a CUE file against a schema
  bunsenite parse service.cue --schema schema.cue

  # Enforce Rego policies on the result
  bunsenite parse service.cue --policy policies/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.File = args[0]
			return a.dispatch(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Pretty, "pretty", "p", false, "pretty-print the output JSON")
	cmd.Flags().StringVar(&opts.Format, "format", "json", "output format (json, yaml)")
	cmd.Flags().StringVar(&opts.Lang, "lang", "", "configuration language (cue, starlark, hcl)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file the result must satisfy")
	cmd.Flags().StringSliceVar(&opts.Policy, "policy", nil, "Rego policy file or directory (repeatable)")

	return cmd
}
