package builtin

import (
	"github.com/spf13/cobra"

	"github.com/scottdixon/cli-engine/internal/errlog"
)

func newDebugErrlogCmd(d *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "debug:errlog",
		Short: "stream the error log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errlog.Stream(d.Paths.Errlog(), cmd.OutOrStdout())
		},
	}
}
