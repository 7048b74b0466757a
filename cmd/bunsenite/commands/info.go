package commands

import (
	"github.com/spf13/cobra"

	"github.com/bunsenite/bunsenite/pkg/router"
)

func (a *app) newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show version and compliance information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, router.Info{})
		},
	}
}
