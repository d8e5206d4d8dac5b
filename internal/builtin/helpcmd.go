package builtin

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHelpCmd(d *Deps) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "help [subject]",
		Short: "display help for a topic or command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := ""
			if len(args) > 0 {
				subject = args[0]
			}
			if !d.Help.Render(subject, all) {
				return fmt.Errorf("unknown help subject: %s", subject)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include hidden commands")
	return cmd
}
